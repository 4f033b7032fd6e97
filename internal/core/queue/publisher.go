package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"reportdesk/internal/core/reqid"
)

const dialTimeout = 5 * time.Second

// Publisher sends persistent JSON messages to a durable topic exchange. The
// connection is dialled lazily and redialled after the broker drops it.
type Publisher struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	dialing chan struct{} // closed when the in-flight dial finishes
}

func NewPublisher(opts Options, l *zap.Logger) *Publisher {
	return &Publisher{opts: opts, log: l.Named("publisher")}
}

// connection returns the shared connection, dialling it if needed. Only one
// dial runs at a time and it happens outside p.mu; other callers wait for it
// or for their own ctx, whichever ends first.
func (p *Publisher) connection(ctx context.Context) (*amqp.Connection, error) {
	for {
		p.mu.Lock()
		if p.conn != nil && !p.conn.IsClosed() {
			conn := p.conn
			p.mu.Unlock()
			return conn, nil
		}
		if wait := p.dialing; wait != nil {
			p.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, fmt.Errorf("dial: %w", ctx.Err())
			}
		}
		done := make(chan struct{})
		p.dialing = done
		p.mu.Unlock()

		conn, err := dial(ctx, p.opts.URL)

		p.mu.Lock()
		p.dialing = nil
		if err == nil {
			p.conn = conn
		}
		close(done)
		p.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("dial: %w", err)
		}
		return conn, nil
	}
}

// PublishReportCreated emits ev under the configured routing key.
func (p *Publisher) PublishReportCreated(ctx context.Context, ev ReportCreatedEvent) error {
	return p.Publish(ctx, p.opts.RoutingKey, ev)
}

// Publish marshals v and sends it. Errors are logged and returned; callers on
// the request path are expected to ignore them.
func (p *Publisher) Publish(ctx context.Context, routingKey string, v any) error {
	err := p.publish(ctx, routingKey, v)
	if err != nil {
		published.WithLabelValues("error").Inc()
		p.log.Warn("publish failed", zap.String("exchange", p.opts.Exchange), zap.String("routing_key", routingKey), zap.Error(err))
		return err
	}
	published.WithLabelValues("ok").Inc()
	return nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch, p.opts.Exchange); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, p.opts.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: reqid.From(ctx),
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

func dial(ctx context.Context, url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      dialer(ctx),
	})
}

// dialer bounds both the TCP connect and the AMQP handshake by dialTimeout or
// ctx's deadline, whichever is sooner. amqp clears the deadline once the
// connection is open.
func dialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		deadline := time.Now().Add(dialTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		conn, err := (&net.Dialer{Deadline: deadline}).DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func declareExchange(ch *amqp.Channel, name string) error {
	if name == "" {
		return nil
	}
	if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
}
