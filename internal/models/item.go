package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketplaceItem — товар каталога, который можно купить за токены.
type MarketplaceItem struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ItemRequest — данные нового товара.
type ItemRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Cost        decimal.Decimal `json:"cost"`
}

// RedeemRequest — покупка товара. Cost необязателен: если передан, он должен совпасть с текущей ценой.
type RedeemRequest struct {
	ItemID int64           `json:"item_id" validate:"required,gt=0"`
	Cost   decimal.Decimal `json:"cost"`
}
