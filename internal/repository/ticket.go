package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketFilter struct {
	ClientID   string
	AssignedTo string
	Status     model.TicketStatus
	Priority   model.TicketPriority
	Category   model.TicketCategory
	Limit      int
	Offset     int

	// WithMessages preloads each ticket's thread; list views leave it off.
	WithMessages bool
}

func orderedMessages(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }

// MutateFunc changes a locked ticket in place and may return a message to append.
type MutateFunc func(t *model.Ticket) (*model.TicketMessage, error)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// NextNumber draws the next ticket number from a database sequence, so concurrent
// creates never share a number and a number is never handed out twice.
func (r *TicketRepository) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Raw("SELECT nextval('ticket_number_seq')").Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("next ticket number: %w", err)
	}
	return n, nil
}

// Create inserts the ticket together with its initial messages.
func (r *TicketRepository) Create(ctx context.Context, t *model.Ticket) error {
	return translate(r.db.WithContext(ctx).Create(t).Error, errs.ErrTicketNotFound)
}

func (r *TicketRepository) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.WithContext(ctx).
		Preload("Messages", orderedMessages).
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, errs.ErrTicketNotFound)
	}
	return &t, nil
}

func (r *TicketRepository) List(ctx context.Context, f TicketFilter) ([]model.Ticket, int64, error) {
	var items []model.Ticket
	var total int64
	tx := r.db.WithContext(ctx).Model(&model.Ticket{})
	if f.ClientID != "" {
		tx = tx.Where("client_id = ?", f.ClientID)
	}
	if f.AssignedTo != "" {
		tx = tx.Where("assigned_to = ?", f.AssignedTo)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		tx = tx.Where("priority = ?", f.Priority)
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	// Count total before pagination
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}
	if f.WithMessages {
		tx = tx.Preload("Messages", orderedMessages)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Mutate locks the ticket row, applies fn and persists the result in one transaction.
// Status changes and message appends for the same ticket are therefore serialized.
func (r *TicketRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Ticket, error) {
	var out model.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&out, "id = ?", id).Error; err != nil {
			return translate(err, errs.ErrTicketNotFound)
		}
		msg, err := fn(&out)
		if err != nil {
			return err
		}
		if msg != nil {
			msg.TicketID = out.ID
			if err := tx.Create(msg).Error; err != nil {
				return fmt.Errorf("append message: %w", err)
			}
		}
		if err := tx.Model(&out).
			Select("status", "assigned_to", "resolved_at", "closed_at", "updated_at").
			Updates(&out).Error; err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return tx.Where("ticket_id = ?", out.ID).Order("created_at ASC, id ASC").Find(&out.Messages).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type statusCount struct {
	Status model.TicketStatus
	N      int64
}

// CountByStatus returns ticket counts per status, optionally scoped to one client.
func (r *TicketRepository) CountByStatus(ctx context.Context, clientID string) (map[model.TicketStatus]int64, error) {
	var rows []statusCount
	tx := r.db.WithContext(ctx).Model(&model.Ticket{}).Select("status, count(*) AS n")
	if clientID != "" {
		tx = tx.Where("client_id = ?", clientID)
	}
	if err := tx.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[model.TicketStatus]int64, len(model.TicketStatuses))
	for _, s := range model.TicketStatuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// ResolvedBefore lists ids of tickets still resolved whose ResolvedAt precedes cutoff.
func (r *TicketRepository) ResolvedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("status = ? AND resolved_at < ?", model.TicketStatusResolved, cutoff).
		Order("resolved_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
