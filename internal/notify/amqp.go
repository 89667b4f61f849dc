package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerlens/backend/internal/analytics"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// AMQP publishes alerts to a durable topic exchange.
type AMQP struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string

	// amqp channels must not be used concurrently
	mu sync.Mutex
}

// NewAMQP connects to the broker at url and declares the exchange.
func NewAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQP{conn: conn, channel: channel, exchange: exchange}, nil
}

func (a *AMQP) Publish(ctx context.Context, ownerID string, alerts []analytics.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	for _, alert := range alerts {
		body, err := encode(ownerID, alert, now)
		if err != nil {
			return fmt.Errorf("marshal alert: %w", err)
		}

		err = a.channel.PublishWithContext(
			ctx,
			a.exchange,        // exchange
			RoutingKey(alert), // routing key
			false,             // mandatory
			false,             // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    now,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish alert: %w", err)
		}

		log.Debug().Str("owner", ownerID).Str("budget", alert.BudgetID).Str("exchange", a.exchange).Msg("published budget alert")
	}

	return nil
}

func (a *AMQP) Close() error {
	if a.channel != nil {
		a.channel.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
