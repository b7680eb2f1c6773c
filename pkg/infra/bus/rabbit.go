// Package bus fans change events out onto a RabbitMQ fanout exchange for
// downstream consumers.
package bus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Exchange is the logical fanout exchange downstream consumers bind to.
const Exchange = "order_updates"

// envelope is the wire body: {instrument, type, data, timestamp}.
type envelope struct {
	Instrument string    `json:"instrument"`
	Type       string    `json:"type"`
	Data       any       `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher announces events without awaiting acknowledgment. A broken
// connection is logged and redialed on the next announce; events in between
// are lost, which is the contract.
type Publisher struct {
	url string
	log *zap.SugaredLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string, log *zap.SugaredLogger) (*Publisher, error) {
	p := &Publisher{url: url, log: log}
	if err := p.dial(); err != nil {
		return nil, err
	}
	return p, nil
}

// dial establishes the connection and declares the exchange. Caller holds
// p.mu or has exclusive access.
func (p *Publisher) dial() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(Exchange, "fanout", false, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

// Announce publishes one event. Failures are logged and discarded.
func (p *Publisher) Announce(ctx context.Context, symbol, eventType string, payload any) {
	body, err := json.Marshal(envelope{
		Instrument: symbol,
		Type:       eventType,
		Data:       payload,
		Timestamp:  time.Now(),
	})
	if err != nil {
		p.log.Warnw("bus_marshal_failed", "symbol", symbol, "type", eventType, "err", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		if err := p.dial(); err != nil {
			p.log.Warnw("bus_redial_failed", "err", err)
			return
		}
	}

	err = p.ch.PublishWithContext(ctx, Exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		p.log.Warnw("bus_publish_failed", "symbol", symbol, "type", eventType, "err", err)
		p.teardown()
	}
}

// teardown drops the broken channel so the next announce redials. Caller
// holds p.mu.
func (p *Publisher) teardown() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardown()
}
