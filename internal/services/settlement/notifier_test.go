package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helptoken/helptoken/internal/models"
)

type recordingPublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (p *recordingPublisher) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return p.err
}

func TestQueueNotifier_Notify(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewQueueNotifier(pub, "settlements", "pending")

	require.NoError(t, n.Notify(context.Background(), &models.SettlementRecord{ID: 7, SessionID: 3}))
	assert.Equal(t, "settlements", pub.exchange)
	assert.Equal(t, "pending", pub.key)

	var msg models.SettlementMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &msg))
	assert.Equal(t, models.SettlementMessage{SettlementID: 7, SessionID: 3}, msg)

	pub.err = errors.New("channel closed")
	assert.Error(t, n.Notify(context.Background(), &models.SettlementRecord{ID: 8}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, &models.SettlementRecord{ID: 9}), context.Canceled)
}
