package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/authz"
	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/ids"
	"github.com/psds-microservice/backoffice-service/internal/metrics"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"go.uber.org/zap"
)

const (
	maxSubjectLen    = 255
	maxMessageLen    = 10000
	maxAttachments   = 10
	defaultListLimit = 20
	maxListLimit     = 100
)

// TicketServicer: интерфейс для HTTP-хендлеров (Dependency Inversion).
type TicketServicer interface {
	Create(ctx context.Context, actor model.Principal, in CreateTicketInput) (*model.Ticket, error)
	Get(ctx context.Context, actor model.Principal, id string) (*model.Ticket, error)
	List(ctx context.Context, actor model.Principal, f repository.TicketFilter) ([]model.Ticket, int64, error)
	AppendMessage(ctx context.Context, actor model.Principal, id string, in MessageInput) (*model.Ticket, error)
	SetStatus(ctx context.Context, actor model.Principal, id string, target model.TicketStatus) (*model.Ticket, error)
	Assign(ctx context.Context, actor model.Principal, id, adminID string) (*model.Ticket, error)
	Stats(ctx context.Context, actor model.Principal) (map[model.TicketStatus]int64, error)
}

type CreateTicketInput struct {
	ClientID    string
	Subject     string
	Description string
	OrderID     string
	Priority    model.TicketPriority
	Category    model.TicketCategory
	Message     string
	Attachments []string
}

type MessageInput struct {
	Message     string
	Attachments []string
}

type TicketOption func(*TicketService)

// WithReopenClosed lets a client reply reopen a closed ticket instead of being rejected.
func WithReopenClosed(reopen bool) TicketOption {
	return func(s *TicketService) { s.reopenClosed = reopen }
}

func WithNotifier(n TicketNotifier) TicketOption {
	return func(s *TicketService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithClock(now func() time.Time) TicketOption {
	return func(s *TicketService) { s.now = now }
}

type TicketService struct {
	tickets      TicketStore
	clients      ClientStore
	admins       AdminStore
	notifier     TicketNotifier
	reopenClosed bool
	now          func() time.Time
	log          *zap.Logger
}

var _ TicketServicer = (*TicketService)(nil)

func NewTicketService(tickets TicketStore, clients ClientStore, admins AdminStore, log *zap.Logger, opts ...TicketOption) *TicketService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TicketService{
		tickets:  tickets,
		clients:  clients,
		admins:   admins,
		notifier: noopNotifier{},
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateMessage(text string, attachments []string) (string, []string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, errs.Validation("message is required")
	}
	if len(text) > maxMessageLen {
		return "", nil, errs.Validation("message exceeds %d characters", maxMessageLen)
	}
	if len(attachments) > maxAttachments {
		return "", nil, errs.Validation("at most %d attachments allowed", maxAttachments)
	}
	out := make([]string, 0, len(attachments))
	for _, a := range attachments {
		a = strings.TrimSpace(a)
		if err := validate.Var(a, "required,url"); err != nil {
			return "", nil, errs.Validation("attachment %q is not a url", a)
		}
		out = append(out, a)
	}
	return text, out, nil
}

func (s *TicketService) newMessage(actor model.Principal, text string, attachments []string) *model.TicketMessage {
	return &model.TicketMessage{
		ID:          ids.New(),
		Sender:      model.SenderFor(actor.Kind),
		SenderID:    actor.ID,
		SenderName:  actor.Name,
		Message:     text,
		Attachments: attachments,
		CreatedAt:   s.now().UTC(),
	}
}

// Create opens a ticket. A client always opens for itself; an admin opens on behalf of
// an existing client. An optional first message is stored without changing the status.
func (s *TicketService) Create(ctx context.Context, actor model.Principal, in CreateTicketInput) (*model.Ticket, error) {
	if err := authz.Authorize(actor, authz.AnyAuthenticated, ""); err != nil {
		return nil, err
	}
	clientID := strings.TrimSpace(in.ClientID)
	if authz.IsAdmin(actor) {
		if clientID == "" {
			return nil, errs.Validation("client_id is required")
		}
		if _, err := s.clients.FindByID(ctx, clientID); err != nil {
			return nil, err
		}
	} else {
		if clientID != "" && clientID != actor.ID {
			return nil, fmt.Errorf("%w: clients open tickets for themselves only", errs.ErrForbidden)
		}
		clientID = actor.ID
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, errs.Validation("subject is required")
	}
	if len(subject) > maxSubjectLen {
		return nil, errs.Validation("subject exceeds %d characters", maxSubjectLen)
	}
	if in.Priority == "" {
		in.Priority = model.TicketPriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, errs.Validation("invalid priority %q", in.Priority)
	}
	if in.Category == "" {
		in.Category = model.TicketCategoryGeneral
	}
	if !in.Category.Valid() {
		return nil, errs.Validation("invalid category %q", in.Category)
	}

	var first *model.TicketMessage
	if strings.TrimSpace(in.Message) != "" || len(in.Attachments) > 0 {
		text, atts, err := validateMessage(in.Message, in.Attachments)
		if err != nil {
			return nil, err
		}
		first = s.newMessage(actor, text, atts)
	}

	n, err := s.tickets.NextNumber(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &model.Ticket{
		ID:           ids.New(),
		TicketNumber: model.FormatTicketNumber(n),
		Subject:      subject,
		Description:  strings.TrimSpace(in.Description),
		ClientID:     clientID,
		OrderID:      strings.TrimSpace(in.OrderID),
		Status:       model.TicketStatusOpen,
		Priority:     in.Priority,
		Category:     in.Category,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if first != nil {
		first.TicketID = t.ID
		t.Messages = []model.TicketMessage{*first}
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if first != nil {
		metrics.TicketMessage(string(first.Sender))
	}
	s.log.Info("ticket created",
		zap.String("ticket_id", t.ID),
		zap.String("ticket_number", t.TicketNumber),
		zap.String("client_id", t.ClientID),
		zap.String("actor_id", actor.ID))
	s.notifier.TicketChanged(ctx, EventTicketCreated, t)
	return t, nil
}

// Get returns the ticket with its thread. A client asking for someone else's
// ticket gets errs.ErrForbidden, an unknown id gets errs.ErrTicketNotFound.
func (s *TicketService) Get(ctx context.Context, actor model.Principal, id string) (*model.Ticket, error) {
	if err := authz.Authorize(actor, authz.AnyAuthenticated, ""); err != nil {
		return nil, err
	}
	t, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.OwnerOrAdmin, t.ClientID); err != nil {
		return nil, err
	}
	return t, nil
}

// List is always scoped to the caller's own tickets for clients.
func (s *TicketService) List(ctx context.Context, actor model.Principal, f repository.TicketFilter) ([]model.Ticket, int64, error) {
	if err := authz.Authorize(actor, authz.AnyAuthenticated, ""); err != nil {
		return nil, 0, err
	}
	if !authz.IsAdmin(actor) {
		f.ClientID = actor.ID
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, errs.Validation("invalid status %q", f.Status)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, 0, errs.Validation("invalid priority %q", f.Priority)
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, 0, errs.Validation("invalid category %q", f.Category)
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.tickets.List(ctx, f)
}

// AppendMessage adds a reply to the thread and moves the ticket accordingly:
// client replies reopen it, admin replies put it in progress.
func (s *TicketService) AppendMessage(ctx context.Context, actor model.Principal, id string, in MessageInput) (*model.Ticket, error) {
	if err := authz.Authorize(actor, authz.AnyAuthenticated, ""); err != nil {
		return nil, err
	}
	text, atts, err := validateMessage(in.Message, in.Attachments)
	if err != nil {
		return nil, err
	}
	var from model.TicketStatus
	msg := s.newMessage(actor, text, atts)
	t, err := s.tickets.Mutate(ctx, id, func(t *model.Ticket) (*model.TicketMessage, error) {
		if err := authz.Authorize(actor, authz.OwnerOrAdmin, t.ClientID); err != nil {
			return nil, err
		}
		from = t.Status
		if err := t.ApplyMessage(msg.Sender, s.reopenClosed); err != nil {
			return nil, err
		}
		t.UpdatedAt = s.now().UTC()
		return msg, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.TicketMessage(string(msg.Sender))
	metrics.TicketTransition(string(from), string(t.Status))
	s.log.Info("ticket message added",
		zap.String("ticket_id", t.ID),
		zap.String("sender", string(msg.Sender)),
		zap.String("from", string(from)),
		zap.String("to", string(t.Status)))
	s.notifier.TicketChanged(ctx, EventTicketMessageAdded, t)
	return t, nil
}

// SetStatus applies an explicit status change. Admins may set any status, clients
// may only close their own ticket.
func (s *TicketService) SetStatus(ctx context.Context, actor model.Principal, id string, target model.TicketStatus) (*model.Ticket, error) {
	if err := authz.Authorize(actor, authz.AnyAuthenticated, ""); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, errs.Validation("invalid status %q", target)
	}
	var from model.TicketStatus
	t, err := s.tickets.Mutate(ctx, id, func(t *model.Ticket) (*model.TicketMessage, error) {
		if err := authz.Authorize(actor, authz.OwnerOrAdmin, t.ClientID); err != nil {
			return nil, err
		}
		from = t.Status
		now := s.now().UTC()
		if err := t.ApplyStatus(actor.Kind, target, now); err != nil {
			return nil, err
		}
		t.UpdatedAt = now
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.TicketTransition(string(from), string(t.Status))
	s.log.Info("ticket status changed",
		zap.String("ticket_id", t.ID),
		zap.String("from", string(from)),
		zap.String("to", string(t.Status)),
		zap.String("actor_id", actor.ID))
	s.notifier.TicketChanged(ctx, EventTicketStatusChanged, t)
	return t, nil
}

// Assign hands the ticket to an existing admin and marks it in progress.
func (s *TicketService) Assign(ctx context.Context, actor model.Principal, id, adminID string) (*model.Ticket, error) {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return nil, err
	}
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, errs.Validation("admin id is required")
	}
	if _, err := s.admins.FindByID(ctx, adminID); err != nil {
		return nil, err
	}
	var from model.TicketStatus
	t, err := s.tickets.Mutate(ctx, id, func(t *model.Ticket) (*model.TicketMessage, error) {
		from = t.Status
		t.ApplyAssign(adminID)
		t.UpdatedAt = s.now().UTC()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.TicketTransition(string(from), string(t.Status))
	s.log.Info("ticket assigned",
		zap.String("ticket_id", t.ID),
		zap.String("assignee", adminID),
		zap.String("actor_id", actor.ID))
	s.notifier.TicketChanged(ctx, EventTicketAssigned, t)
	return t, nil
}

func (s *TicketService) Stats(ctx context.Context, actor model.Principal) (map[model.TicketStatus]int64, error) {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return nil, err
	}
	return s.tickets.CountByStatus(ctx, "")
}

// AutoCloseResolved closes tickets that have stayed resolved for longer than olderThan.
// A ticket that moved on between the scan and the lock is left alone.
func (s *TicketService) AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-olderThan)
	candidates, err := s.tickets.ResolvedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list resolved tickets: %w", err)
	}
	closed := 0
	var errList []error
	for _, id := range candidates {
		changed := false
		t, err := s.tickets.Mutate(ctx, id, func(t *model.Ticket) (*model.TicketMessage, error) {
			if t.Status != model.TicketStatusResolved {
				return nil, nil
			}
			now := s.now().UTC()
			if err := t.ApplyStatus(model.KindAdmin, model.TicketStatusClosed, now); err != nil {
				return nil, err
			}
			t.UpdatedAt = now
			changed = true
			return nil, nil
		})
		if err != nil {
			s.log.Warn("auto-close failed", zap.String("ticket_id", id), zap.Error(err))
			errList = append(errList, err)
			continue
		}
		if !changed {
			continue
		}
		closed++
		metrics.TicketTransition(string(model.TicketStatusResolved), string(model.TicketStatusClosed))
		s.notifier.TicketChanged(ctx, EventTicketStatusChanged, t)
	}
	if closed > 0 {
		s.log.Info("auto-closed resolved tickets", zap.Int("count", closed), zap.Time("cutoff", cutoff))
	}
	return closed, errors.Join(errList...)
}
