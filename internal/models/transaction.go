package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType — направление движения средств.
type TransactionType string

const (
	TxEarn  TransactionType = "earn"
	TxSpend TransactionType = "spend"
)

// Transaction — неизменяемая запись журнала. Amount всегда положительный, знак задаёт Type.
type Transaction struct {
	ID          int64           `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	UserUID     string          `json:"user_uid"`
	SessionID   *int64          `json:"session_id,omitempty"`
	ItemID      *int64          `json:"item_id,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LedgerTotals — суммы по журналу пользователя.
type LedgerTotals struct {
	Earned decimal.Decimal
	Spent  decimal.Decimal
}

// Net возвращает earn минус spend.
func (t LedgerTotals) Net() decimal.Decimal {
	return t.Earned.Sub(t.Spent)
}

// AuditResult — сверка хранимого баланса с журналом.
type AuditResult struct {
	UserUID  string          `json:"user_uid"`
	Balance  decimal.Decimal `json:"balance"`
	Journal  decimal.Decimal `json:"journal"`
	Mismatch bool            `json:"mismatch"`
}
