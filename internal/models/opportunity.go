package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Границы ставки вознаграждения, токенов в час.
var (
	MinRewardRate = decimal.NewFromInt(1)
	MaxRewardRate = decimal.NewFromInt(5)
)

// Opportunity — волонтёрская возможность с текущей ставкой вознаграждения.
type Opportunity struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Municipality string          `json:"municipality,omitempty"`
	RewardRate   decimal.Decimal `json:"reward_rate"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OpportunityRequest — данные для создания или обновления возможности.
type OpportunityRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	Category     string          `json:"category" validate:"max=100"`
	Municipality string          `json:"municipality" validate:"max=200"`
	RewardRate   decimal.Decimal `json:"reward_rate"`
	Active       *bool           `json:"active"`
}

// ValidateRewardRate проверяет, что ставка лежит в [1,5].
func ValidateRewardRate(rate decimal.Decimal) error {
	if rate.LessThan(MinRewardRate) || rate.GreaterThan(MaxRewardRate) {
		return fmt.Errorf("%w: reward_rate must be between %s and %s", ErrValidation, MinRewardRate, MaxRewardRate)
	}
	return nil
}
