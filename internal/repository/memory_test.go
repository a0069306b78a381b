package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func seedTicket(t *testing.T, store *MemoryStore, id string, status domain.TicketStatus, createdAt time.Time) {
	t.Helper()
	err := store.Tickets().Create(context.Background(), &domain.Ticket{
		ID:          id,
		Subject:     "subject " + id,
		Status:      status,
		CreatedAt:   createdAt,
		LastEventAt: createdAt,
	})
	require.NoError(t, err)
}

func TestMemoryTicketsNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Tickets().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	err = store.Tickets().Update(ctx, &domain.Ticket{ID: "missing"})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryTicketsReturnCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	technicianID := "tech-1"
	now := time.Now()
	seedTicket(t, store, "t-1", domain.TicketStatusNew, now)

	first, err := store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)
	first.Status = domain.TicketStatusAssigned
	first.AssignedTechnicianID = &technicianID

	second, err := store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, second.Status)
	assert.Nil(t, second.AssignedTechnicianID)
}

func TestMemoryTicketsFilterAndPagination(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTicket(t, store, "t-1", domain.TicketStatusNew, base)
	seedTicket(t, store, "t-2", domain.TicketStatusClosed, base.Add(time.Hour))
	seedTicket(t, store, "t-3", domain.TicketStatusNew, base.Add(2*time.Hour))

	newOnly, err := store.Tickets().ListWithFilter(ctx, TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusNew},
	})
	require.NoError(t, err)
	assert.Len(t, newOnly, 2)

	from := base.Add(30 * time.Minute)
	windowed, err := store.Tickets().ListWithFilter(ctx, TicketFilter{CreatedFrom: &from})
	require.NoError(t, err)
	assert.Len(t, windowed, 2)

	// newest first, one per page
	page, err := store.Tickets().ListWithFilter(ctx, TicketFilter{Limit: 1, Offset: 0})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "t-3", page[0].ID)

	page, err = store.Tickets().ListWithFilter(ctx, TicketFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "t-1", page[0].ID)

	empty, err := store.Tickets().ListWithFilter(ctx, TicketFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryTimelineAppendAssignsSequence(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedTicket(t, store, "t-1", domain.TicketStatusNew, time.Now())

	for i := 0; i < 3; i++ {
		event := &domain.Event{ID: "e", TicketID: "t-1", Kind: domain.EventCommentAdded}
		require.NoError(t, store.Timeline().Append(ctx, event))
		assert.Equal(t, int64(i+1), event.Seq)
	}

	events, err := store.Timeline().ListByTicket(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, event := range events {
		assert.Equal(t, int64(i+1), event.Seq)
	}

	err = store.Timeline().Append(ctx, &domain.Event{TicketID: "missing"})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	users := store.Users()

	technician := &domain.User{ID: "u-1", Role: domain.RoleTechnician, Name: "Laura", Email: "laura@example.com", Enabled: true}
	require.NoError(t, users.Create(ctx, technician))
	admin := &domain.User{ID: "u-2", Role: domain.RoleAdmin, Name: "Admin", Email: "admin@example.com", Enabled: true}
	require.NoError(t, users.Create(ctx, admin))

	byEmail, err := users.GetByEmail(ctx, "laura@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	role := domain.RoleTechnician
	technicians, err := users.List(ctx, UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, technicians, 1)
	assert.Equal(t, "u-1", technicians[0].ID)

	// a zero limit lists everyone, same as ticket filtering
	all, err := users.List(ctx, UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	page, err := users.List(ctx, UserFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, users.UpdateLastLogin(ctx, "u-1", at))
	reloaded, err := users.GetByID(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLogin)
	assert.Equal(t, at, *reloaded.LastLogin)
}
