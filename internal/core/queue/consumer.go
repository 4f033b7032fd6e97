package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"reportdesk/internal/core/reqid"
)

const maxBackoff = 30 * time.Second

// Handler processes one decoded event. A returned error requeues the
// delivery once.
type Handler func(ctx context.Context, ev ReportCreatedEvent) error

type Consumer struct {
	opts   Options
	handle Handler
	log    *zap.Logger
}

func NewConsumer(opts Options, h Handler, l *zap.Logger) *Consumer {
	return &Consumer{opts: opts, handle: h, log: l.Named("consumer")}
}

// LogReportCreated is the default handler: it records the event.
func LogReportCreated(l *zap.Logger) Handler {
	return func(ctx context.Context, ev ReportCreatedEvent) error {
		l.Info("report created",
			zap.String("rid", reqid.From(ctx)),
			zap.Uint64("id", ev.ID),
			zap.Uint64("user_id", ev.UserID),
			zap.String("name", ev.Name),
			zap.Time("created_at", ev.CreatedAt),
		)
		return nil
	}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff
// whenever the broker connection is lost.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := dial(ctx, c.opts.URL)
		if err != nil {
			c.log.Warn("dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := c.declare(ch); err != nil {
		return err
	}
	if err := ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		c.log.Warn("set qos failed", zap.Error(err))
	}
	msgs, err := ch.Consume(c.opts.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("consuming", zap.String("queue", c.opts.Queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// declare sets up the exchange, the durable queue and its binding. When a
// dead-letter exchange is configured, rejected deliveries are routed to it
// and collected in "<queue>.dead".
func (c *Consumer) declare(ch *amqp.Channel) error {
	if err := declareExchange(ch, c.opts.Exchange); err != nil {
		return err
	}
	var args amqp.Table
	if dlx := c.opts.DeadLetterExchange; dlx != "" {
		if err := ch.ExchangeDeclare(dlx, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
			return fmt.Errorf("dead-letter exchange declare: %w", err)
		}
		dead := c.opts.Queue + ".dead"
		if _, err := ch.QueueDeclare(dead, true, false, false, false, nil); err != nil {
			return fmt.Errorf("dead-letter queue declare: %w", err)
		}
		if err := ch.QueueBind(dead, "", dlx, false, nil); err != nil {
			return fmt.Errorf("dead-letter queue bind: %w", err)
		}
		args = amqp.Table{"x-dead-letter-exchange": dlx}
	}
	if _, err := ch.QueueDeclare(c.opts.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if c.opts.Exchange != "" {
		if err := ch.QueueBind(c.opts.Queue, c.opts.RoutingKey, c.opts.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind: %w", err)
		}
	}
	return nil
}

type outcome string

const (
	outcomeAcked    outcome = "acked"
	outcomeRejected outcome = "rejected"
	outcomeRequeued outcome = "requeued"
	outcomeDropped  outcome = "dropped"
)

// handleDelivery acks only after the handler succeeded. Malformed bodies are
// rejected without requeue. A handler failure is requeued once; a second
// failure on the redelivered copy drops it.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) outcome {
	var (
		out outcome
		err error
	)
	ev, derr := DecodeReportCreated(d.Body)
	switch {
	case derr != nil:
		c.log.Warn("malformed delivery", zap.Uint64("tag", d.DeliveryTag), zap.Error(derr))
		out, err = outcomeRejected, d.Nack(false, false)
	default:
		if herr := c.handle(reqid.With(ctx, d.CorrelationId), ev); herr != nil {
			if d.Redelivered {
				c.log.Error("handler failed on redelivery, dropping", zap.Uint64("id", ev.ID), zap.Error(herr))
				out, err = outcomeDropped, d.Nack(false, false)
			} else {
				c.log.Warn("handler failed, requeueing", zap.Uint64("id", ev.ID), zap.Error(herr))
				out, err = outcomeRequeued, d.Nack(false, true)
			}
		} else {
			out, err = outcomeAcked, d.Ack(false)
		}
	}
	if err != nil {
		c.log.Warn("acknowledge failed", zap.String("outcome", string(out)), zap.Error(err))
	}
	consumed.WithLabelValues(string(out)).Inc()
	return out
}
