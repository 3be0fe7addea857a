package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Initial: 2 * time.Second, Max: 30 * time.Second}

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 0, want: 2 * time.Second},
		{attempts: 1, want: 2 * time.Second},
		{attempts: 2, want: 4 * time.Second},
		{attempts: 3, want: 8 * time.Second},
		{attempts: 4, want: 16 * time.Second},
		{attempts: 5, want: 30 * time.Second},
		{attempts: 60, want: 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempts), "attempts=%d", tt.attempts)
	}
}

func TestBackoff_Jitter(t *testing.T) {
	b := Backoff{Initial: 10 * time.Second, Max: time.Minute, Jitter: 0.2}

	b.rand = func() float64 { return 0.5 }
	assert.Equal(t, 10*time.Second, b.Delay(1))

	b.rand = func() float64 { return 0 }
	assert.Equal(t, 8*time.Second, b.Delay(1))

	b.rand = func() float64 { return 1 }
	assert.Equal(t, 12*time.Second, b.Delay(1))

	b.rand = nil
	for range 100 {
		d := b.Delay(2)
		assert.GreaterOrEqual(t, d, 16*time.Second)
		assert.LessOrEqual(t, d, 24*time.Second)
	}
}
