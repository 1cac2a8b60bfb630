package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes order events asynchronously through an inbox
// channel so a slow broker never blocks a request. Publish failures are
// logged; order processing never depends on them.
type Producer struct {
	w         *kafka.Writer
	service   string
	inbox     chan kafka.Message
	closed    chan struct{}
	closeOnce sync.Once
}

func NewProducer(brokers []string, topic, service string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		service: service,
		inbox:   make(chan kafka.Message, buf),
		closed:  make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(m)
				}
				_ = p.w.Close()
				close(p.closed)
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					close(p.closed)
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		slog.Error("kafka write failed", "topic", p.w.Topic, "error", err)
	}
}

// Publish marshals the payload into a versioned envelope keyed by order
// id, so all events for one order keep their partition order.
func (p *Producer) Publish(eventType string, orderID int64, payload any) {
	ev, err := NewEnvelope(p.service, eventType, payload)
	if err != nil {
		slog.Error("event marshal failed", "event_type", eventType, "error", err)
		return
	}

	value, err := json.Marshal(ev)
	if err != nil {
		slog.Error("envelope marshal failed", "event_type", eventType, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", orderID)),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	select {
	case p.inbox <- msg:
	default:
		slog.Warn("event inbox full, dropping event",
			"event_type", eventType, "order_id", orderID)
	}
}

// Close flushes the inbox and stops the writer loop.
func (p *Producer) Close() {
	p.closeOnce.Do(func() { close(p.inbox) })
}

func (p *Producer) WaitClosed() { <-p.closed }
