package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/helptoken/helptoken/internal/lib/sl"
)

// ConsumerMessage запускает потребителя очереди. Сообщения обрабатываются параллельно,
// не более prefetch одновременно; ошибка обработчика возвращает сообщение в очередь.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	go consume(ctx, log, delivery, handler)
	return nil
}

// acknowledger — часть amqp.Delivery для подтверждения.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func consume(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery, handler func([]byte) error) {
	sem := make(chan struct{}, prefetch)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				log.Warn("delivery channel closed")
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				settle(log, &d, d.Body, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func settle(log *slog.Logger, d acknowledger, body []byte, handler func([]byte) error) {
	if err := handler(body); err != nil {
		log.Warn("handler failed, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
