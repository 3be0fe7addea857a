package settlement

import (
	"context"
	"fmt"

	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/rabbitmq"
)

// Notifier сообщает обработчику о записи, готовой к попытке.
type Notifier interface {
	Notify(ctx context.Context, rec *models.SettlementRecord) error
}

// QueueNotifier публикует уведомление о новой записи расчёта в RabbitMQ.
// Запись уже зафиксирована, поэтому потерянное сообщение лишь откладывает попытку до обхода.
type QueueNotifier struct {
	ch         rabbitmq.Publisher
	exchange   string
	routingKey string
}

// NewQueueNotifier создает новый экземпляр QueueNotifier.
func NewQueueNotifier(ch rabbitmq.Publisher, exchange, routingKey string) *QueueNotifier {
	return &QueueNotifier{ch: ch, exchange: exchange, routingKey: routingKey}
}

var _ Notifier = (*QueueNotifier)(nil)

func (n *QueueNotifier) Notify(ctx context.Context, rec *models.SettlementRecord) error {
	const op = "settlement.QueueNotifier.Notify"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	msg := models.SettlementMessage{SettlementID: rec.ID, SessionID: rec.SessionID}
	if err := rabbitmq.PublishMessage(n.ch, n.exchange, n.routingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
