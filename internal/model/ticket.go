package model

import (
	"fmt"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"gorm.io/datatypes"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists statuses in lifecycle order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed}

func (s TicketStatus) Valid() bool {
	for _, v := range TicketStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

type TicketCategory string

const (
	TicketCategoryGeneral   TicketCategory = "general"
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryBilling   TicketCategory = "billing"
	TicketCategoryOrder     TicketCategory = "order"
	TicketCategoryOther     TicketCategory = "other"
)

func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryGeneral, TicketCategoryTechnical, TicketCategoryBilling, TicketCategoryOrder, TicketCategoryOther:
		return true
	}
	return false
}

type Sender string

const (
	SenderClient Sender = "client"
	SenderAdmin  Sender = "admin"
)

// SenderFor maps a principal kind onto the message sender it produces.
func SenderFor(kind PrincipalKind) Sender {
	if kind == KindAdmin {
		return SenderAdmin
	}
	return SenderClient
}

type Ticket struct {
	ID           string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	TicketNumber string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"ticket_number"`
	Subject      string         `gorm:"type:varchar(255);not null" json:"subject"`
	Description  string         `gorm:"type:text" json:"description"`
	ClientID     string         `gorm:"type:varchar(26);index;not null" json:"client_id"`
	OrderID      string         `gorm:"type:varchar(64)" json:"order_id,omitempty"`
	AssignedTo   *string        `gorm:"type:varchar(26);index" json:"assigned_to,omitempty"`
	Status       TicketStatus   `gorm:"type:varchar(32);index;not null" json:"status"`
	Priority     TicketPriority `gorm:"type:varchar(16);index;not null" json:"priority"`
	Category     TicketCategory `gorm:"type:varchar(32);index;not null" json:"category"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`

	Messages []TicketMessage `gorm:"foreignKey:TicketID" json:"messages"`
}

// TicketMessage: запись в переписке тикета; только добавление, без правок.
type TicketMessage struct {
	ID          string                      `gorm:"primaryKey;type:varchar(26)" json:"id"`
	TicketID    string                      `gorm:"type:varchar(26);index;not null" json:"ticket_id"`
	Sender      Sender                      `gorm:"type:varchar(16);not null" json:"sender"`
	SenderID    string                      `gorm:"type:varchar(26);not null" json:"sender_id"`
	SenderName  string                      `gorm:"type:varchar(255)" json:"sender_name"`
	Message     string                      `gorm:"type:text;not null" json:"message"`
	Attachments datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"attachments"`
	CreatedAt   time.Time                   `json:"created_at"`
}

func FormatTicketNumber(n int64) string {
	return fmt.Sprintf("TKT-%05d", n)
}

// OwnedBy reports whether the ticket belongs to the given client.
func (t *Ticket) OwnedBy(clientID string) bool {
	return clientID != "" && t.ClientID == clientID
}

// ApplyMessage derives the status that follows a newly appended message.
// An admin message always moves the ticket to in-progress. A client message
// moves it to open; on a closed ticket that is only allowed when reopenClosed is set.
func (t *Ticket) ApplyMessage(sender Sender, reopenClosed bool) error {
	switch sender {
	case SenderAdmin:
		t.Status = TicketStatusInProgress
	case SenderClient:
		if t.Status == TicketStatusClosed && !reopenClosed {
			return fmt.Errorf("%w: ticket %s is closed", errs.ErrForbidden, t.TicketNumber)
		}
		t.Status = TicketStatusOpen
	default:
		return errs.Validation("unknown sender %q", sender)
	}
	return nil
}

// ApplyStatus moves the ticket to target on behalf of actor.
// Clients may only close. ResolvedAt and ClosedAt are stamped on first entry and kept afterwards.
func (t *Ticket) ApplyStatus(actor PrincipalKind, target TicketStatus, now time.Time) error {
	if !target.Valid() {
		return errs.Validation("invalid status %q", target)
	}
	if actor != KindAdmin && target != TicketStatusClosed {
		return fmt.Errorf("%w: clients may only close tickets", errs.ErrForbidden)
	}
	t.Status = target
	switch target {
	case TicketStatusResolved:
		if t.ResolvedAt == nil {
			ts := now
			t.ResolvedAt = &ts
		}
	case TicketStatusClosed:
		if t.ClosedAt == nil {
			ts := now
			t.ClosedAt = &ts
		}
	}
	return nil
}

// ApplyAssign hands the ticket to an admin; assignment always means work is in progress.
func (t *Ticket) ApplyAssign(adminID string) {
	id := adminID
	t.AssignedTo = &id
	t.Status = TicketStatusInProgress
}
