package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
)

type memAdmins struct {
	mu   sync.Mutex
	byID map[string]model.Admin
	err  error
}

func newMemAdmins() *memAdmins { return &memAdmins{byID: map[string]model.Admin{}} }

func (m *memAdmins) Create(_ context.Context, a *model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if strings.EqualFold(x.Email, a.Email) {
			return errs.ErrConflict
		}
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memAdmins) FindByEmail(_ context.Context, email string) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, x := range m.byID {
		if x.Email == email {
			a := x
			return &a, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memAdmins) FindByID(_ context.Context, id string) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &x, nil
}

func (m *memAdmins) List(_ context.Context) ([]model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Admin, 0, len(m.byID))
	for _, x := range m.byID {
		out = append(out, x)
	}
	return out, nil
}

func (m *memAdmins) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	x.PasswordHash = hash
	m.byID[id] = x
	return nil
}

func (m *memAdmins) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memClients struct {
	mu   sync.Mutex
	byID map[string]model.Client
}

func newMemClients() *memClients { return &memClients{byID: map[string]model.Client{}} }

func (m *memClients) Create(_ context.Context, c *model.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if strings.EqualFold(x.Email, c.Email) {
			return errs.ErrConflict
		}
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memClients) FindByEmail(_ context.Context, email string) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, x := range m.byID {
		if x.Email == email {
			c := x
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memClients) FindByID(_ context.Context, id string) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &x, nil
}

func (m *memClients) List(_ context.Context, f repository.ClientFilter) ([]model.Client, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Client
	for _, x := range m.byID {
		if f.Status == "" || x.Status == f.Status {
			out = append(out, x)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memClients) UpdateProfile(_ context.Context, id string, changes map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	for k, v := range changes {
		switch k {
		case "name":
			x.Name = v.(string)
		case "company":
			x.Company = v.(string)
		case "phone":
			x.Phone = v.(string)
		default:
			return errs.Validation("field %q is not editable", k)
		}
	}
	m.byID[id] = x
	return nil
}

func (m *memClients) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	x.PasswordHash = hash
	m.byID[id] = x
	return nil
}

func (m *memClients) SetStatus(_ context.Context, id string, status model.ClientStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	x.Status = status
	m.byID[id] = x
	return nil
}

// memTickets mimics the row-locked Mutate of the gorm repository with a single mutex.
type memTickets struct {
	mu   sync.Mutex
	seq  int64
	byID map[string]*model.Ticket
}

func newMemTickets() *memTickets { return &memTickets{byID: map[string]*model.Ticket{}} }

func cloneTicket(t *model.Ticket) *model.Ticket {
	c := *t
	c.Messages = append([]model.TicketMessage(nil), t.Messages...)
	return &c
}

func (m *memTickets) NextNumber(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *memTickets) Create(_ context.Context, t *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.TicketNumber == t.TicketNumber {
			return errs.ErrConflict
		}
	}
	m.byID[t.ID] = cloneTicket(t)
	return nil
}

func (m *memTickets) FindByID(_ context.Context, id string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, errs.ErrTicketNotFound
	}
	return cloneTicket(t), nil
}

func (m *memTickets) List(_ context.Context, f repository.TicketFilter) ([]model.Ticket, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Ticket
	for _, t := range m.byID {
		if f.ClientID != "" && t.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, *cloneTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketNumber > out[j].TicketNumber })
	total := int64(len(out))
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = nil
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memTickets) Mutate(_ context.Context, id string, fn repository.MutateFunc) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[id]
	if !ok {
		return nil, errs.ErrTicketNotFound
	}
	work := cloneTicket(stored)
	msg, err := fn(work)
	if err != nil {
		return nil, err
	}
	if msg != nil {
		msg.TicketID = work.ID
		work.Messages = append(work.Messages, *msg)
	}
	m.byID[id] = work
	return cloneTicket(work), nil
}

func (m *memTickets) CountByStatus(_ context.Context, clientID string) (map[model.TicketStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.TicketStatus]int64{}
	for _, s := range model.TicketStatuses {
		out[s] = 0
	}
	for _, t := range m.byID {
		if clientID == "" || t.ClientID == clientID {
			out[t.Status]++
		}
	}
	return out, nil
}

func (m *memTickets) ResolvedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, t := range m.byID {
		if t.Status == model.TicketStatusResolved && t.ResolvedAt != nil && t.ResolvedAt.Before(cutoff) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

type recordedEvent struct {
	Event    string
	TicketID string
	Status   model.TicketStatus
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) TicketChanged(_ context.Context, event string, t *model.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Event: event, TicketID: t.ID, Status: t.Status})
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Event)
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
