package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus — состояние волонтёрской сессии.
type SessionStatus string

const (
	SessionPending  SessionStatus = "pending_verification"
	SessionVerified SessionStatus = "verified"
	SessionRejected SessionStatus = "rejected"
)

// IsTerminal сообщает, что из состояния больше нет переходов.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionVerified, SessionRejected:
		return true
	default:
		return false
	}
}

// Границы длительности одной сессии, в часах.
var (
	MinSessionHours = decimal.RequireFromString("0.5")
	MaxSessionHours = decimal.NewFromInt(12)
)

// VolunteerSession — одна заявка о выполненной работе.
// FrozenRewardRate фиксируется при подаче, TokensEarned вычисляется один раз и больше не пересчитывается.
type VolunteerSession struct {
	ID               int64           `json:"id"`
	OpportunityID    int64           `json:"opportunity_id"`
	VolunteerUID     string          `json:"volunteer_uid"`
	Hours            decimal.Decimal `json:"hours"`
	FrozenRewardRate decimal.Decimal `json:"frozen_reward_rate"`
	TokensEarned     decimal.Decimal `json:"tokens_earned"`
	Description      string          `json:"description,omitempty"`
	PhotoURL         string          `json:"photo_url,omitempty"`
	Latitude         *float64        `json:"latitude,omitempty"`
	Longitude        *float64        `json:"longitude,omitempty"`
	Status           SessionStatus   `json:"status"`
	VerifierUID      string          `json:"verifier_uid,omitempty"`
	VerifierNotes    string          `json:"verifier_notes,omitempty"`
	SubmittedAt      time.Time       `json:"submitted_at"`
	DecidedAt        *time.Time      `json:"decided_at,omitempty"`
}

// Location — необязательные координаты места работы.
type Location struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

// SubmitSessionRequest — тело запроса на подачу сессии.
type SubmitSessionRequest struct {
	OpportunityID int64           `json:"opportunity_id" validate:"required,gt=0"`
	Hours         decimal.Decimal `json:"hours"`
	Description   string          `json:"description" validate:"max=2000"`
	PhotoURL      string          `json:"photo_url" validate:"omitempty,url"`
	Location      *Location       `json:"location"`
}

// DecisionRequest — решение проверяющего.
type DecisionRequest struct {
	Approved *bool  `json:"approved" validate:"required"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// Decision — применяемый к сессии переход из pending_verification.
type Decision struct {
	Status      SessionStatus
	VerifierUID string
	Notes       string
	DecidedAt   time.Time
}

// SessionDetails — сессия вместе с записью о расчёте, если она уже создана.
// Settlement может отсутствовать или быть не подтверждённой даже у проверенной сессии.
type SessionDetails struct {
	Session    *VolunteerSession `json:"session"`
	Settlement *SettlementRecord `json:"settlement,omitempty"`
}

// ValidateHours проверяет, что длительность лежит в [0.5,12].
func ValidateHours(hours decimal.Decimal) error {
	if hours.LessThan(MinSessionHours) || hours.GreaterThan(MaxSessionHours) {
		return fmt.Errorf("%w: hours must be between %s and %s", ErrValidation, MinSessionHours, MaxSessionHours)
	}
	return nil
}

// ComputeTokens возвращает hours × rate без округления.
func ComputeTokens(hours, rate decimal.Decimal) decimal.Decimal {
	return hours.Mul(rate)
}

// SessionMinutes переводит часы в целые минуты (floor), как их принимает контракт реестра.
func SessionMinutes(hours decimal.Decimal) int64 {
	return hours.Mul(decimal.NewFromInt(60)).Floor().IntPart()
}
