package service

import (
	"context"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
)

// AdminStore persists Admin principals. Implemented by repository.AdminRepository.
type AdminStore interface {
	Create(ctx context.Context, a *model.Admin) error
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindByID(ctx context.Context, id string) (*model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// ClientStore persists Client principals. Implemented by repository.ClientRepository.
type ClientStore interface {
	Create(ctx context.Context, c *model.Client) error
	FindByEmail(ctx context.Context, email string) (*model.Client, error)
	FindByID(ctx context.Context, id string) (*model.Client, error)
	List(ctx context.Context, f repository.ClientFilter) ([]model.Client, int64, error)
	UpdateProfile(ctx context.Context, id string, changes map[string]interface{}) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetStatus(ctx context.Context, id string, status model.ClientStatus) error
}

// TicketStore persists tickets and their message threads. Implemented by repository.TicketRepository.
type TicketStore interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, t *model.Ticket) error
	FindByID(ctx context.Context, id string) (*model.Ticket, error)
	List(ctx context.Context, f repository.TicketFilter) ([]model.Ticket, int64, error)
	Mutate(ctx context.Context, id string, fn repository.MutateFunc) (*model.Ticket, error)
	CountByStatus(ctx context.Context, clientID string) (map[model.TicketStatus]int64, error)
	ResolvedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// TicketNotifier receives ticket lifecycle events after a successful write (best effort).
type TicketNotifier interface {
	TicketChanged(ctx context.Context, event string, t *model.Ticket)
}

// Ticket lifecycle event names.
const (
	EventTicketCreated       = "ticket.created"
	EventTicketMessageAdded  = "ticket.message_added"
	EventTicketStatusChanged = "ticket.status_changed"
	EventTicketAssigned      = "ticket.assigned"
)

type noopNotifier struct{}

func (noopNotifier) TicketChanged(context.Context, string, *model.Ticket) {}
