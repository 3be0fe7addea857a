package models

import "time"

// SettlementStatus — состояние зеркалирования сессии во внешний реестр.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementConfirmed SettlementStatus = "confirmed"
	SettlementFailed    SettlementStatus = "failed"
)

// ParseSettlementStatus проверяет строковое значение статуса.
func ParseSettlementStatus(raw string) (SettlementStatus, bool) {
	status := SettlementStatus(raw)
	switch status {
	case SettlementPending, SettlementConfirmed, SettlementFailed:
		return status, true
	default:
		return "", false
	}
}

// SettlementRecord создаётся в той же транзакции, что и начисление за сессию.
// Его неудача никогда не откатывает ни сессию, ни транзакцию.
type SettlementRecord struct {
	ID                int64            `json:"id"`
	SessionID         int64            `json:"session_id"`
	OpportunityID     int64            `json:"opportunity_id"`
	VolunteerUID      string           `json:"volunteer_uid"`
	Minutes           int64            `json:"minutes"`
	IdempotencyKey    string           `json:"idempotency_key"`
	Status            SettlementStatus `json:"status"`
	Attempts          int              `json:"attempts"`
	NextAttemptAt     time.Time        `json:"next_attempt_at"`
	LastError         string           `json:"last_error,omitempty"`
	ExternalReference string           `json:"external_reference,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	ConfirmedAt       *time.Time       `json:"confirmed_at,omitempty"`
}

// SettlementFailure описывает результат неудачной попытки.
type SettlementFailure struct {
	Attempts      int
	Status        SettlementStatus
	NextAttemptAt time.Time
	LastError     string
	UpdatedAt     time.Time
}

// SettlementRequest — параметры вызова "record session" во внешнем реестре.
type SettlementRequest struct {
	OpportunityID  int64
	Beneficiary    string
	Minutes        int64
	IdempotencyKey string
}

// SettlementMessage — тело сообщения в RabbitMQ о новой записи на расчёт.
type SettlementMessage struct {
	SettlementID int64 `json:"settlement_id"`
	SessionID    int64 `json:"session_id"`
}

// VolunteerStats — агрегаты внешнего реестра по адресу волонтёра.
type VolunteerStats struct {
	Address       string `json:"address"`
	TotalMinutes  int64  `json:"total_minutes"`
	TotalProjects int64  `json:"total_projects"`
	TotalEarned   string `json:"total_earned"`
	Balance       string `json:"balance"`
}
