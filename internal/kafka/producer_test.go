package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicketEvent(t *testing.T) {
	admin := "A1"
	tk := &model.Ticket{
		ID:           "T1",
		TicketNumber: "TKT-00007",
		ClientID:     "C1",
		AssignedTo:   &admin,
		Subject:      "Refund",
		Status:       model.TicketStatusInProgress,
		Priority:     model.TicketPriorityHigh,
		Category:     model.TicketCategoryBilling,
		Messages: []model.TicketMessage{
			{ID: "M1", Message: "where is my money"},
			{ID: "M2", Message: "processing"},
		},
	}
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	ev := NewTicketEvent("ticket.assigned", tk, at)
	assert.Equal(t, "A1", ev.AssignedTo)
	assert.Equal(t, 2, ev.MessageCount)
	assert.Equal(t, "processing", ev.LastMessage)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ticket.assigned", decoded["event"])
	assert.Equal(t, "TKT-00007", decoded["ticket_number"])
	assert.Equal(t, "in-progress", decoded["status"])
	assert.Equal(t, "2026-02-03T04:05:06Z", decoded["occurred_at"])
}

func TestNewTicketEventUnassigned(t *testing.T) {
	ev := NewTicketEvent("ticket.created", &model.Ticket{ID: "T2"}, time.Now())
	assert.Empty(t, ev.AssignedTo)
	assert.Empty(t, ev.LastMessage)
	assert.Zero(t, ev.MessageCount)
}

func TestProducerWithoutBrokersIsNoop(t *testing.T) {
	p := NewProducer(nil, "backoffice.tickets", nil)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.PublishTicket(context.Background(), "ticket.created", &model.Ticket{ID: "T1"}))
	assert.NoError(t, p.Close())

	p = NewProducer([]string{"localhost:9092"}, "", nil)
	assert.False(t, p.Enabled())
}
