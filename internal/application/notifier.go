package application

import (
	"context"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/kafka"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/searchindex"
	"go.uber.org/zap"
)

// ticketEvents forwards ticket changes to the search pipeline without blocking the request.
// Kafka is preferred (the search worker consumes the topic); direct HTTP indexing is the fallback.
type ticketEvents struct {
	producer kafka.TicketEventProducer
	search   *searchindex.Client
	log      *zap.Logger
}

func newTicketEvents(producer kafka.TicketEventProducer, search *searchindex.Client, log *zap.Logger) *ticketEvents {
	return &ticketEvents{producer: producer, search: search, log: log}
}

func (e *ticketEvents) TicketChanged(_ context.Context, event string, t *model.Ticket) {
	if e.producer != nil && e.producer.Enabled() {
		snapshot := *t
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.producer.PublishTicket(ctx, event, &snapshot); err != nil {
				e.log.Warn("ticket event not published", zap.String("event", event), zap.String("ticket_id", snapshot.ID), zap.Error(err))
			}
		}()
		return
	}
	if e.search != nil {
		snapshot := *t
		e.search.IndexTicketAsync(&snapshot)
	}
}
