package mq

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"mediavault/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeEvents = "cdn.events.exchange"
	QueueEvents    = "cdn.events.queue"
	RoutingImport  = "cdn.import"
)

// ImportEvent is the message published on every import status change, so
// other systems can react without polling the queue table.
type ImportEvent struct {
	ImportID  uint64 `json:"import_id"`
	Status    string `json:"status"`
	SourceURL string `json:"source_url,omitempty"`
	ObjectID  uint64 `json:"object_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Client struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	publishMu sync.Mutex
}

var publisherMu sync.Mutex
var publisher *Client

func Dial() (*Client, error) {
	conn, err := amqp.Dial(config.AppConfig.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{Conn: conn, Channel: ch}, nil
}

func GetPublisher() (*Client, error) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	if publisher != nil {
		if !publisher.Conn.IsClosed() && !publisher.Channel.IsClosed() {
			return publisher, nil
		}
		publisher.Close()
		publisher = nil
	}
	client, err := Dial()
	if err != nil {
		return nil, err
	}
	if err := client.DeclareTopology(); err != nil {
		client.Close()
		return nil, err
	}
	publisher = client
	return publisher, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

func (c *Client) DeclareTopology() error {
	if err := c.Channel.ExchangeDeclare(
		ExchangeEvents,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return err
	}
	if _, err := c.Channel.QueueDeclare(
		QueueEvents,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return err
	}
	return c.Channel.QueueBind(
		QueueEvents,
		RoutingImport,
		ExchangeEvents,
		false,
		nil,
	)
}

func (c *Client) publish(ctx context.Context, key string, body []byte) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	return c.Channel.PublishWithContext(
		ctx,
		ExchangeEvents,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// PublishImportEvent publishes an import status change. Events are best
// effort: a broker outage must not fail the import itself.
func PublishImportEvent(evt ImportEvent) {
	if config.AppConfig.RabbitMQURL == "" {
		return
	}
	client, err := GetPublisher()
	if err != nil {
		log.Println("mq publish skipped:", err)
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		log.Println("mq marshal fail:", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.publish(ctx, RoutingImport, body); err != nil {
		log.Println("mq publish fail:", err)
	}
}
