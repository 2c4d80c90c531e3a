package rabbitmq

import (
	"errors"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/budget-premium/internal/config"
)

// Broker держит соединение и канал, через которые публикуются события премиум-доступа.
type Broker struct {
	*Publisher
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Open подключается к RabbitMQ, объявляет exchange и очереди премиум-событий.
func Open(cfg config.RabbitMQ) (*Broker, error) {
	const op = "rabbitmq.Open"

	conn, err := Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := SetupChannel(conn, cfg.Exchange, GetPremiumQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Broker{
		Publisher: NewPublisher(ch, cfg.Exchange),
		conn:      conn,
		ch:        ch,
	}, nil
}

// Close закрывает канал и соединение.
func (b *Broker) Close() error {
	return errors.Join(b.ch.Close(), b.conn.Close())
}
