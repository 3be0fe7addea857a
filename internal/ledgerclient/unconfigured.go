package ledgerclient

import (
	"context"
	"fmt"

	"github.com/helptoken/helptoken/internal/models"
)

// Unconfigured используется, когда адрес шлюза не задан. Каждая попытка расчёта
// завершается ошибкой и планируется повтор, записи доходят до failed и ждут оператора.
type Unconfigured struct{}

var _ Gateway = Unconfigured{}

func (Unconfigured) RecordSession(context.Context, models.SettlementRequest) (string, error) {
	return "", fmt.Errorf("ledger gateway is not configured: %w", models.ErrSettlementFailure)
}

func (Unconfigured) VolunteerStats(context.Context, string) (*models.VolunteerStats, error) {
	return nil, fmt.Errorf("ledger gateway is not configured: %w", models.ErrSettlementFailure)
}

func (Unconfigured) BalanceOf(context.Context, string) (string, error) {
	return "", fmt.Errorf("ledger gateway is not configured: %w", models.ErrSettlementFailure)
}
