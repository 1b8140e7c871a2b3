package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TicketEventProducer: интерфейс для отправки событий тикета в Kafka (для подмены моком в тестах).
type TicketEventProducer interface {
	PublishTicket(ctx context.Context, event string, t *model.Ticket) error
	Enabled() bool
}

// TicketEvent is the message body on the ticket topic; the search worker indexes from it.
type TicketEvent struct {
	Event        string               `json:"event"`
	TicketID     string               `json:"ticket_id"`
	TicketNumber string               `json:"ticket_number"`
	ClientID     string               `json:"client_id"`
	AssignedTo   string               `json:"assigned_to,omitempty"`
	Subject      string               `json:"subject"`
	Description  string               `json:"description,omitempty"`
	Status       model.TicketStatus   `json:"status"`
	Priority     model.TicketPriority `json:"priority"`
	Category     model.TicketCategory `json:"category"`
	MessageCount int                  `json:"message_count"`
	LastMessage  string               `json:"last_message,omitempty"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

// NewTicketEvent flattens a ticket into its event payload.
func NewTicketEvent(event string, t *model.Ticket, at time.Time) TicketEvent {
	ev := TicketEvent{
		Event:        event,
		TicketID:     t.ID,
		TicketNumber: t.TicketNumber,
		ClientID:     t.ClientID,
		Subject:      t.Subject,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		Category:     t.Category,
		MessageCount: len(t.Messages),
		OccurredAt:   at.UTC(),
	}
	if t.AssignedTo != nil {
		ev.AssignedTo = *t.AssignedTo
	}
	if n := len(t.Messages); n > 0 {
		ev.LastMessage = t.Messages[n-1].Message
	}
	return ev
}

// Producer пишет события тикетов в топик Kafka (best-effort, не блокирует API).
type Producer struct {
	writer *kafka.Writer
	topic  string
	log    *zap.Logger
}

// NewProducer создаёт продюсер. Если brokers или topic пустые, методы no-op.
func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		topic: topic,
		log:   log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Enabled() bool { return p.writer != nil }

// PublishTicket отправляет событие тикета в топик. Ключом служит id тикета, чтобы события
// одного тикета попадали в одну партицию по порядку.
func (p *Producer) PublishTicket(ctx context.Context, event string, t *model.Ticket) error {
	if p.writer == nil {
		return nil
	}
	body, err := json.Marshal(NewTicketEvent(event, t, time.Now()))
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(t.ID), Value: body}); err != nil {
		p.log.Warn("kafka: write ticket event", zap.String("event", event), zap.String("ticket_id", t.ID), zap.Error(err))
		return err
	}
	return nil
}

// Close закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
