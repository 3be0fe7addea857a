package rabbitmq

// prefetch ограничивает число неподтверждённых сообщений на потребителя
// и совпадает с числом параллельных обработчиков.
const prefetch = 10

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// SettlementQueues возвращает очереди уведомлений о новых записях расчёта.
func SettlementQueues(queue, routingKey string) []QueueConfig {
	return []QueueConfig{
		{QueueName: queue, RoutingKey: routingKey},
	}
}
