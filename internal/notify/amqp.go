package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/Veraticus/zerbin/internal/model"
)

// AMQPConfig configures the status-change publisher.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// channel is the part of *amqp.Channel used for publishing.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes status changes as persistent JSON messages to a
// direct exchange, reconnecting once if the connection dropped.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel channel
	dial    func() (*amqp.Connection, channel, error)
	config  AMQPConfig
	mu      sync.Mutex
}

// NewAMQPNotifier connects to the broker and declares the exchange.
func NewAMQPNotifier(config AMQPConfig) (*AMQPNotifier, error) {
	if config.RoutingKey == "" {
		config.RoutingKey = "report.status"
	}
	n := &AMQPNotifier{config: config}
	n.dial = n.dialBroker

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.connectLocked(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *AMQPNotifier) dialBroker() (*amqp.Connection, channel, error) {
	conn, err := amqp.Dial(n.config.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(n.config.Exchange, "direct", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return conn, ch, nil
}

func (n *AMQPNotifier) connectLocked() error {
	conn, ch, err := n.dial()
	if err != nil {
		return err
	}
	n.conn = conn
	n.channel = ch
	return nil
}

func (n *AMQPNotifier) closeLocked() {
	if n.channel != nil {
		_ = n.channel.Close()
		n.channel = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}

// NotifyStatusChange implements service.Notifier.
func (n *AMQPNotifier) NotifyStatusChange(ctx context.Context, change model.StatusChange) error {
	body, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal status change: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Type:         "report.status_changed",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel == nil || (n.conn != nil && n.conn.IsClosed()) {
		n.closeLocked()
		if err := n.connectLocked(); err != nil {
			return err
		}
	}

	err = n.channel.Publish(n.config.Exchange, n.config.RoutingKey, false, false, publishing)
	if err != nil && isConnClosedErr(err) {
		n.closeLocked()
		if connErr := n.connectLocked(); connErr != nil {
			return fmt.Errorf("failed to publish status change: %w (reconnect failed: %v)", err, connErr)
		}
		err = n.channel.Publish(n.config.Exchange, n.config.RoutingKey, false, false, publishing)
	}
	if err != nil {
		return fmt.Errorf("failed to publish status change: %w", err)
	}

	return ctx.Err()
}

// Close closes the channel and connection.
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closeLocked()
	return nil
}

func isConnClosedErr(err error) bool {
	if errors.Is(err, amqp.ErrClosed) {
		return true
	}
	return strings.Contains(err.Error(), "channel/connection is not open")
}
