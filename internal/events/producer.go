package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/zeromicro/go-zero/core/logx"
)

// Ticket lifecycle event names.
const (
	TicketCreated = "ticket.created"
	TicketClosed  = "ticket.closed"
	TicketMessage = "ticket.message"
)

// Producer writes ticket lifecycle events to a kafka topic. Best effort:
// delivery failures log and drop, they never fail the originating request.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer returns a producer, or a no-op one when brokers or topic are
// unset.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Emit publishes one event. payload keys: ticket_id, category, user_id, ...
func (p *Producer) Emit(ctx context.Context, event string, payload map[string]any) {
	if p.writer == nil {
		return
	}
	msg := map[string]any{"event": event, "at": time.Now().UTC().Format(time.RFC3339)}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		logx.Errorf("events: marshal %s: %v", event, err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		logx.Errorf("events: write %s: %v", event, err)
	}
}

// EmitAsync publishes without blocking the request path.
func (p *Producer) EmitAsync(event string, payload map[string]any) {
	if p.writer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p.Emit(ctx, event, payload)
	}()
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers splits "host1:9092,host2:9092" into a broker list.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
