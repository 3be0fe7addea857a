package sl_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helptoken/helptoken/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	err := errors.New("something went wrong")
	attr := sl.Err(err)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.Panics(t, func() {
		_ = sl.Err(nil)
	})
}

func TestNew_LevelByEnv(t *testing.T) {
	var buf bytes.Buffer

	local := sl.New(sl.EnvLocal, &buf)
	assert.True(t, local.Enabled(context.Background(), slog.LevelDebug))

	prod := sl.New("prod", &buf)
	assert.False(t, prod.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, prod.Enabled(context.Background(), slog.LevelInfo))

	prod.Info("settlement confirmed", sl.Err(errors.New("none")))
	assert.Contains(t, buf.String(), `error=none`)
}
