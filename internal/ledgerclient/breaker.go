package ledgerclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/helptoken/helptoken/internal/models"
)

// Gateway — операции внешнего реестра.
type Gateway interface {
	RecordSession(ctx context.Context, req models.SettlementRequest) (string, error)
	VolunteerStats(ctx context.Context, address string) (*models.VolunteerStats, error)
	BalanceOf(ctx context.Context, address string) (string, error)
}

type BreakerConfig struct {
	// ConsecutiveFailures — сколько ошибок подряд размыкают цепь.
	ConsecutiveFailures uint32
	// Interval — период сброса счётчиков в замкнутом состоянии.
	Interval time.Duration
	// OpenTimeout — сколько цепь остаётся разомкнутой до пробного запроса.
	OpenTimeout time.Duration
}

// Breaker оборачивает Gateway в автоматический выключатель. Отказ выключателя
// возвращается как models.ErrSettlementFailure и считается неудачной попыткой.
type Breaker struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker
}

var _ Gateway = (*Breaker)(nil)

func NewBreaker(log *slog.Logger, next Gateway, cfg BreakerConfig) *Breaker {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        "ledger-gateway",
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State возвращает текущее состояние выключателя.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) execute(op string, fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: ledger gateway unavailable (%v): %w", op, err, models.ErrSettlementFailure)
	}
	return nil, err
}

func (b *Breaker) RecordSession(ctx context.Context, req models.SettlementRequest) (string, error) {
	const op = "ledgerclient.Breaker.RecordSession"
	res, err := b.execute(op, func() (any, error) {
		return b.next.RecordSession(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (b *Breaker) VolunteerStats(ctx context.Context, address string) (*models.VolunteerStats, error) {
	const op = "ledgerclient.Breaker.VolunteerStats"
	res, err := b.execute(op, func() (any, error) {
		return b.next.VolunteerStats(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.VolunteerStats), nil
}

func (b *Breaker) BalanceOf(ctx context.Context, address string) (string, error) {
	const op = "ledgerclient.Breaker.BalanceOf"
	res, err := b.execute(op, func() (any, error) {
		return b.next.BalanceOf(ctx, address)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}
