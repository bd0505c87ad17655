//go:build integration

package infra

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BindTempQueue declares a server-named exclusive queue bound to exchange.
// The queue goes away with the connection.
func BindTempQueue(conn *amqp.Connection, exchange, bindingKey string) (string, error) {
	ch, err := conn.Channel()
	if err != nil {
		return "", err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return "", err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", err
	}
	if err := ch.QueueBind(q.Name, bindingKey, exchange, false, nil); err != nil {
		return "", err
	}
	return q.Name, nil
}

// ConsumeOne pulls one message, or reports false after wait.
func ConsumeOne(conn *amqp.Connection, queue string, wait time.Duration) (amqp.Delivery, bool, error) {
	ch, err := conn.Channel()
	if err != nil {
		return amqp.Delivery{}, false, err
	}
	defer ch.Close()

	msgs, err := ch.Consume(queue, "", true, false, false, false, nil)
	if err != nil {
		return amqp.Delivery{}, false, err
	}

	select {
	case m := <-msgs:
		return m, true, nil
	case <-time.After(wait):
		return amqp.Delivery{}, false, nil
	}
}
