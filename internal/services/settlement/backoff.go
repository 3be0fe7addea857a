package settlement

import (
	"math/rand/v2"
	"time"
)

// Backoff вычисляет задержку перед следующей попыткой:
// min(Initial × 2^(attempts−1), Max) с разбросом ±Jitter.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	// Jitter — доля задержки в [0,1], на которую она случайно сдвигается в обе стороны.
	Jitter float64

	rand func() float64
}

// Delay возвращает задержку после attempts неудачных попыток (attempts >= 1).
func (b Backoff) Delay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := b.Initial
	for i := 1; i < attempts && d < b.Max; i++ {
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	if b.Jitter <= 0 || d <= 0 {
		return d
	}

	rnd := b.rand
	if rnd == nil {
		rnd = rand.Float64
	}
	spread := float64(d) * b.Jitter
	d += time.Duration(spread * (2*rnd() - 1))
	if d < 0 {
		return 0
	}
	return d
}
