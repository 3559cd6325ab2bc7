package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPoison marks a message that can never be handled. It is dropped instead
// of requeued.
var ErrPoison = errors.New("poison message")

// HandlerFunc processes one delivery body published under key.
type HandlerFunc func(ctx context.Context, key string, body []byte) error

type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	q    string
	log  *zap.Logger
}

func NewConsumer(url, exchange, queue, key string, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbit: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(step string, err error) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	qd, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(qd.Name, key, exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}

	return &Consumer{conn: conn, ch: ch, q: qd.Name, log: logger}, nil
}

func (c *Consumer) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Consume runs workers until ctx is done or the broker closes the channel.
func (c *Consumer) Consume(ctx context.Context, workers int, handle HandlerFunc) error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if err := c.ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := c.ch.Consume(c.q, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	Serve(ctx, msgs, workers, handle, c.log)
	return nil
}

// Serve fans msgs out to a fixed pool of workers. Handled messages are acked,
// failures are requeued, poison messages are dropped.
func Serve(ctx context.Context, msgs <-chan amqp.Delivery, workers int, handle HandlerFunc, logger *zap.Logger) {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(worker int) {
			defer wg.Done()
			for {
				select {
				case d, ok := <-msgs:
					if !ok {
						return
					}
					settle(ctx, d, handle, logger.With(zap.Int("worker", worker)))
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func settle(ctx context.Context, d amqp.Delivery, handle HandlerFunc, logger *zap.Logger) {
	fields := []zap.Field{zap.String("key", d.RoutingKey), zap.String("message_id", d.MessageId)}
	if rid, ok := d.Headers["X-Request-ID"].(string); ok {
		fields = append(fields, zap.String("request_id", rid))
	}

	err := handle(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPoison):
		logger.Warn("dropping message", append(fields, zap.Error(err))...)
		_ = d.Nack(false, false)
	default:
		logger.Error("handler failed, requeue", append(fields, zap.Error(err))...)
		_ = d.Nack(false, true)
	}
}
