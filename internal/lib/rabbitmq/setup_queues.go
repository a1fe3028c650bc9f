package rabbitmq

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// TurnstileRoutingKey ключ маршрутизации сообщений для табло турникета.
const TurnstileRoutingKey = "turnstile"

// GetEntryStatusQueues возвращает очереди, подписанные на статусы входа.
func GetEntryStatusQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "entry-status.turnstile", RoutingKey: TurnstileRoutingKey},
		// при необходимости дополнительные очереди для других потребителей
	}
}
