package settlementworker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helptoken/helptoken/internal/config"
	"github.com/helptoken/helptoken/internal/models"
)

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) Sweep(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, nil
}

type countingAuditor struct{ calls atomic.Int32 }

func (a *countingAuditor) AuditAll(context.Context) ([]models.AuditResult, error) {
	a.calls.Add(1)
	return []models.AuditResult{{UserUID: "u", Balance: decimal.NewFromInt(5), Journal: decimal.NewFromInt(4), Mismatch: true}}, nil
}

func TestScheduleJobs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper, auditor := &countingSweeper{}, &countingAuditor{}

	c := cron.New(cron.WithSeconds())
	err := scheduleJobs(context.Background(), c, logger, config.Settlement{
		SweepSchedule: "@every 1s",
		AuditSchedule: "@every 1s",
	}, sweeper, auditor)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)

	c.Start()
	defer c.Stop()
	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() > 0 && auditor.calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestScheduleJobs_InvalidSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := scheduleJobs(context.Background(), cron.New(), logger, config.Settlement{
		SweepSchedule: "not a schedule",
		AuditSchedule: "@daily",
	}, &countingSweeper{}, &countingAuditor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep_schedule")

	err = scheduleJobs(context.Background(), cron.New(), logger, config.Settlement{
		SweepSchedule: "@every 30s",
		AuditSchedule: "61 * * * *",
	}, &countingSweeper{}, &countingAuditor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit_schedule")
}
