package ledgerclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helptoken/helptoken/internal/models"
)

type GatewayMock struct {
	mock.Mock
}

func (m *GatewayMock) RecordSession(ctx context.Context, req models.SettlementRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) VolunteerStats(ctx context.Context, address string) (*models.VolunteerStats, error) {
	args := m.Called(ctx, address)
	stats, _ := args.Get(0).(*models.VolunteerStats)
	return stats, args.Error(1)
}

func (m *GatewayMock) BalanceOf(ctx context.Context, address string) (string, error) {
	args := m.Called(ctx, address)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	gw := new(GatewayMock)
	failure := errors.Join(models.ErrSettlementFailure, errors.New("connection refused"))
	gw.On("RecordSession", mock.Anything, mock.Anything).Return("", failure).Times(3)

	b := NewBreaker(newNoopLogger(), gw, BreakerConfig{ConsecutiveFailures: 3, OpenTimeout: time.Minute})

	for range 3 {
		_, err := b.RecordSession(context.Background(), models.SettlementRequest{})
		require.ErrorIs(t, err, models.ErrSettlementFailure)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.RecordSession(context.Background(), models.SettlementRequest{})
	require.ErrorIs(t, err, models.ErrSettlementFailure)
	assert.Contains(t, err.Error(), "unavailable")
	gw.AssertNumberOfCalls(t, "RecordSession", 3)
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	gw := new(GatewayMock)
	gw.On("RecordSession", mock.Anything, mock.Anything).Return("0xabc", nil)
	gw.On("BalanceOf", mock.Anything, "0x1").Return("7", nil)
	gw.On("VolunteerStats", mock.Anything, "0x1").Return(&models.VolunteerStats{TotalMinutes: 60}, nil)

	b := NewBreaker(newNoopLogger(), gw, BreakerConfig{})

	hash, err := b.RecordSession(context.Background(), models.SettlementRequest{})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)

	balance, err := b.BalanceOf(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Equal(t, "7", balance)

	stats, err := b.VolunteerStats(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), stats.TotalMinutes)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_CancelledCallsDoNotTrip(t *testing.T) {
	gw := new(GatewayMock)
	gw.On("RecordSession", mock.Anything, mock.Anything).Return("", context.Canceled)

	b := NewBreaker(newNoopLogger(), gw, BreakerConfig{ConsecutiveFailures: 1})
	for range 3 {
		_, err := b.RecordSession(context.Background(), models.SettlementRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
