// Package models содержит доменные структуры сервиса начисления токенов за волонтёрскую работу:
// пользователей, возможности (opportunities), сессии, транзакции, записи расчёта с внешним реестром
// и товары маркетплейса, а также DTO для приёма JSON-запросов.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User представляет участника системы и его агрегированную статистику.
// Баланс меняется только движком учёта и всегда равен сумме earn минус сумма spend.
type User struct {
	UID           string          `json:"uid"`
	Role          string          `json:"role"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	TotalProjects int             `json:"total_projects"`
	CreatedAt     time.Time       `json:"created_at"`
}

// WalletRequest используется для привязки адреса кошелька, на который зеркалируются начисления.
type WalletRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,len=42,startswith=0x,hexadecimal"`
}
