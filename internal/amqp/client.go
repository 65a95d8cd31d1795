package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"duebook/internal/log"
)

const (
	publishTimeout    = 5 * time.Second
	reconnectAttempts = 3
	maxBackoff        = 30 * time.Second

	// Circuit breaker
	maxFailures = 3
	openTimeout = 30 * time.Second
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

// ErrCircuitOpen is returned while publishing is suspended after repeated
// failures.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// logger tags client output with the amqp component. It is resolved on each
// call so it follows whatever default handler the process installed.
func logger() *slog.Logger {
	return slog.Default().With(log.FieldComponent, log.ComponentAMQP)
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

// connect dials the broker and declares the topology. Callers hold mu or
// own the client exclusively.
func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = channel
	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name for the direct exchange
	err = c.channel.QueueBind(
		c.queueName,
		c.queueName,
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// ensureChannel reconnects when the channel was lost, backing off between
// attempts until ctx expires.
func (c *Client) ensureChannel(ctx context.Context) error {
	if c.channel != nil && !c.channel.IsClosed() {
		return nil
	}
	c.closeLocked()

	var err error
	for attempt := 0; attempt < reconnectAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("reconnect AMQP: %w", ctx.Err())
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}
		if err = c.connect(); err == nil {
			logger().InfoContext(ctx, "Reconnected to AMQP broker", "attempt", attempt+1)
			return nil
		}
	}
	logger().WarnContext(ctx, "AMQP reconnect failed",
		"attempts", reconnectAttempts,
		"error_type", log.ErrorTypeNetwork,
		log.FieldError, err)
	return fmt.Errorf("reconnect AMQP: %w", err)
}

// PublishRecordEvent publishes a record lifecycle event
func (c *Client) PublishRecordEvent(ctx context.Context, evt RecordEvent) error {
	body, err := evt.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal record event: %w", err)
	}
	if err := c.publish(ctx, evt.MessageID, string(evt.Type), body); err != nil {
		return err
	}

	logger().DebugContext(ctx, "Published record event",
		log.FieldOperation, log.OpPublish,
		"type", evt.Type,
		"record_id", evt.RecordID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishDigest publishes a due digest
func (c *Client) PublishDigest(ctx context.Context, msg DigestMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}
	if err := c.publish(ctx, msg.MessageID, string(msg.Type), body); err != nil {
		return err
	}

	logger().InfoContext(ctx, "Published due digest",
		log.FieldOperation, log.OpPublish,
		"as_of", msg.AsOf,
		"due", len(msg.Due),
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, messageID, msgType string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish message: %w", ErrCircuitOpen)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureChannel(ctx); err != nil {
		c.recordFailure()
		return err
	}

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    messageID,
			Type:         msgType,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			// Force a reconnect on the next publish
			c.closeLocked()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	return nil
}

// isCircuitOpen reports whether publishing is suspended. An open circuit
// moves to half-open once openTimeout has passed, letting one publish
// through as a probe.
func (c *Client) isCircuitOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return false
	}
	if time.Since(c.lastFailure) < openTimeout {
		return true
	}
	c.state = StateHalfOpen
	return false
}

// recordFailure must be called with mu held.
func (c *Client) recordFailure() {
	c.failureCount++
	c.lastFailure = time.Now()
	if c.state == StateHalfOpen || c.failureCount >= maxFailures {
		if c.state != StateOpen {
			logger().Warn("AMQP circuit breaker opened",
				"error_type", log.ErrorTypeNetwork,
				"failures", c.failureCount,
				"retry_after", openTimeout)
		}
		c.state = StateOpen
	}
}

// recordSuccess must be called with mu held.
func (c *Client) recordSuccess() {
	c.failureCount = 0
	c.state = StateClosed
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
