package rabbitmq

// QueueConfig описывает очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetPremiumQueues возвращает очереди потребителей событий премиум-доступа.
func GetPremiumQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "premium.notifications", RoutingKey: "premium.expiring"},
		{QueueName: "premium.notifications", RoutingKey: "premium.expired"},
		{QueueName: "premium.audit", RoutingKey: "premium.#"},
	}
}
