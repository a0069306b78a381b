package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// MemoryStore backs the repository interfaces with maps guarded by a single
// RWMutex. It serves tests and DB-less deployments; readers always observe
// either the pre- or post-write state of a ticket, never a partial update.
// Not-found lookups return pgx.ErrNoRows so callers handle both backends
// identically.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	events  map[string][]domain.Event
	users   map[string]domain.User
}

// NewMemoryStore initializes an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]domain.Ticket),
		events:  make(map[string][]domain.Event),
		users:   make(map[string]domain.User),
	}
}

// Tickets returns the ticket repository view.
func (s *MemoryStore) Tickets() TicketRepository {
	return &memoryTickets{store: s}
}

// Timeline returns the timeline repository view.
func (s *MemoryStore) Timeline() TimelineRepository {
	return &memoryTimeline{store: s}
}

// Users returns the user repository view.
func (s *MemoryStore) Users() UserRepository {
	return &memoryUsers{store: s}
}

type memoryTickets struct {
	store *MemoryStore
}

func (r *memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.tickets[ticket.ID] = cloneTicket(*ticket)
	r.store.events[ticket.ID] = nil
	return nil
}

func (r *memoryTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.store.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *memoryTickets) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.tickets, id)
	delete(r.store.events, id)
	return nil
}

func (r *memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (r *memoryTickets) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range r.store.tickets {
		if !matchesFilter(ticket, filter) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func matchesFilter(ticket domain.Ticket, filter TicketFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if ticket.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.AssignedTechnicianID != nil {
		if !ticket.AssignedTo(*filter.AssignedTechnicianID) {
			return false
		}
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	return true
}

type memoryTimeline struct {
	store *MemoryStore
}

func (r *memoryTimeline) Append(_ context.Context, event *domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tickets[event.TicketID]; !ok {
		return pgx.ErrNoRows
	}
	event.Seq = int64(len(r.store.events[event.TicketID]) + 1)
	r.store.events[event.TicketID] = append(r.store.events[event.TicketID], *event)
	return nil
}

func (r *memoryTimeline) ListByTicket(_ context.Context, ticketID string) ([]domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	events := r.store.events[ticketID]
	out := make([]domain.Event, len(events))
	copy(out, events)
	return out, nil
}

type memoryUsers struct {
	store *MemoryStore
}

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUsers) Update(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.store.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneUser(user)
	return &out, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, user := range r.store.users {
		if user.Email == email {
			out := cloneUser(user)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryUsers) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []domain.User
	for _, user := range r.store.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Enabled != nil && user.Enabled != *filter.Enabled {
			continue
		}
		result = append(result, cloneUser(user))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *memoryUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stamp := at
	user.LastLogin = &stamp
	r.store.users[id] = user
	return nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssignedTechnicianID != nil {
		id := *t.AssignedTechnicianID
		t.AssignedTechnicianID = &id
	}
	if t.ClosedAt != nil {
		at := *t.ClosedAt
		t.ClosedAt = &at
	}
	return t
}

func cloneUser(u domain.User) domain.User {
	if u.LastLogin != nil {
		at := *u.LastLogin
		u.LastLogin = &at
	}
	return u
}
