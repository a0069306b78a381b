package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/clock"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

type testEnv struct {
	store      *repository.MemoryStore
	clk        *clock.Fixed
	routing    *RoutingService
	lifecycle  *LifecycleService
	intake     *IntakeService
	admin      *domain.User
	dispatcher *domain.User
	tech1      *domain.User
	tech2      *domain.User
	offTech    *domain.User
}

func newTestEnv(t *testing.T, routingCfg config.RoutingConfig) *testEnv {
	t.Helper()
	if routingCfg.Mode == "" {
		routingCfg.Mode = config.RoutingModeManual
	}

	store := repository.NewMemoryStore()
	clk := clock.NewFixed(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	dispatcher := events.NewInMemoryDispatcher()
	routing := NewRoutingService(store.Users(), routingCfg)
	lifecycle := NewLifecycleService(LifecycleDependencies{
		TicketRepo:   store.Tickets(),
		TimelineRepo: store.Timeline(),
		Routing:      routing,
		Clock:        clk,
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
	})
	intake := NewIntakeService(IntakeDependencies{
		TicketRepo:   store.Tickets(),
		TimelineRepo: store.Timeline(),
		Routing:      routing,
		Lifecycle:    lifecycle,
		Clock:        clk,
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
	})

	env := &testEnv{
		store:      store,
		clk:        clk,
		routing:    routing,
		lifecycle:  lifecycle,
		intake:     intake,
		admin:      &domain.User{ID: "admin-1", Role: domain.RoleAdmin, Name: "Admin", Email: "admin@example.com", Enabled: true},
		dispatcher: &domain.User{ID: "disp-1", Role: domain.RoleDispatcher, Name: "Dispatcher", Email: "disp@example.com", Enabled: true},
		tech1:      &domain.User{ID: "tech-1", Role: domain.RoleTechnician, Name: "Laura", Email: "laura@example.com", Specialty: "Redes", Enabled: true},
		tech2:      &domain.User{ID: "tech-2", Role: domain.RoleTechnician, Name: "Carlos", Email: "carlos@example.com", Specialty: "Software", Enabled: true},
		offTech:    &domain.User{ID: "tech-off", Role: domain.RoleTechnician, Name: "Ana", Email: "ana@example.com", Specialty: "Hardware", Enabled: false},
	}
	ctx := context.Background()
	for _, user := range []*domain.User{env.admin, env.dispatcher, env.tech1, env.tech2, env.offTech} {
		require.NoError(t, store.Users().Create(ctx, user))
	}
	return env
}

func (e *testEnv) createTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := e.intake.CreateTicket(context.Background(), "user@example.com", "Pantalla azul", "El equipo se reinicia solo")
	require.NoError(t, err)
	return ticket
}

func eventKinds(t *testing.T, env *testEnv, ticketID string) []domain.EventKind {
	t.Helper()
	timeline, err := env.store.Timeline().ListByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	kinds := make([]domain.EventKind, 0, len(timeline))
	for _, event := range timeline {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func TestFullLifecycleHappyPath(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)
	require.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Nil(t, ticket.AssignedTechnicianID)

	env.clk.Advance(5 * time.Minute)
	assigned, err := env.lifecycle.Assign(ctx, ticket.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedTechnicianID)
	assert.Equal(t, env.tech1.ID, *assigned.AssignedTechnicianID)

	env.clk.Advance(10 * time.Minute)
	started, err := env.lifecycle.Start(ctx, ticket.ID, env.tech1)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, started.Status)

	env.clk.Advance(2 * time.Hour)
	closed, err := env.lifecycle.Close(ctx, ticket.ID, env.tech1)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, env.clk.Now(), *closed.ClosedAt)

	kinds := eventKinds(t, env, ticket.ID)
	assert.Equal(t, []domain.EventKind{
		domain.EventCreated,
		domain.EventAssigned,
		domain.EventStarted,
		domain.EventClosed,
	}, kinds)
}

func TestCloseOnNewIsInvalidAndChangesNothing(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)
	before := eventKinds(t, env, ticket.ID)

	_, err := env.lifecycle.Close(ctx, ticket.ID, env.admin)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	reloaded, err := env.lifecycle.GetTicket(ctx, ticket.ID, env.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, reloaded.Status)
	assert.Nil(t, reloaded.ClosedAt)
	assert.Equal(t, before, eventKinds(t, env, ticket.ID))
}

func TestForbiddenWinsOverInvalidTransition(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)

	// close on NEW is also an invalid transition, but the role miss
	// must surface first
	_, err := env.lifecycle.Close(ctx, ticket.ID, env.dispatcher)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestTechnicianCannotActOnForeignTicket(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)
	_, err := env.lifecycle.Assign(ctx, ticket.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)

	_, err = env.lifecycle.Start(ctx, ticket.ID, env.tech2)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = env.lifecycle.GetTicket(ctx, ticket.ID, env.tech2)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestAssignRejectsUnavailableTechnician(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)

	for _, target := range []string{"ghost", env.offTech.ID, env.dispatcher.ID} {
		_, err := env.lifecycle.Assign(ctx, ticket.ID, target, env.dispatcher)
		require.Error(t, err, target)
		assert.True(t, apperrors.IsCode(err, "TECHNICIAN_UNAVAILABLE"), target)
	}

	reloaded, err := env.lifecycle.GetTicket(ctx, ticket.ID, env.dispatcher)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, reloaded.Status)
}

func TestReassignMovesOwnership(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)
	_, err := env.lifecycle.Assign(ctx, ticket.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)
	_, err = env.lifecycle.Start(ctx, ticket.ID, env.tech1)
	require.NoError(t, err)

	target := env.tech2.ID
	reassigned, err := env.lifecycle.Reassign(ctx, ticket.ID, &target, env.dispatcher, "especialidad equivocada")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, reassigned.Status)
	require.NotNil(t, reassigned.AssignedTechnicianID)
	assert.Equal(t, env.tech2.ID, *reassigned.AssignedTechnicianID)

	kinds := eventKinds(t, env, ticket.ID)
	assert.Equal(t, domain.EventReassigned, kinds[len(kinds)-1])
}

func TestReturnPutsTicketBackInQueue(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)
	_, err := env.lifecycle.Assign(ctx, ticket.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)
	_, err = env.lifecycle.Start(ctx, ticket.ID, env.tech1)
	require.NoError(t, err)

	returned, err := env.lifecycle.Return(ctx, ticket.ID, env.tech1, "fuera de mi especialidad")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, returned.Status)
	assert.Nil(t, returned.AssignedTechnicianID)

	// a reassign with no technician behaves the same way
	_, err = env.lifecycle.Assign(ctx, ticket.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)
	viaReassign, err := env.lifecycle.Reassign(ctx, ticket.ID, nil, env.dispatcher, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, viaReassign.Status)
	assert.Nil(t, viaReassign.AssignedTechnicianID)
}

func TestReopenIsAdminOnlyAndClearsClosedAt(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)
	_, err := env.lifecycle.Assign(ctx, ticket.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)
	_, err = env.lifecycle.Start(ctx, ticket.ID, env.tech1)
	require.NoError(t, err)
	_, err = env.lifecycle.Close(ctx, ticket.ID, env.tech1)
	require.NoError(t, err)

	_, err = env.lifecycle.Reopen(ctx, ticket.ID, env.tech2.ID, env.dispatcher)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	reopened, err := env.lifecycle.Reopen(ctx, ticket.ID, env.tech2.ID, env.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)
	require.NotNil(t, reopened.AssignedTechnicianID)
	assert.Equal(t, env.tech2.ID, *reopened.AssignedTechnicianID)
}

func TestCommentDoesNotChangeStatus(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)
	_, err := env.lifecycle.Assign(ctx, ticket.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)

	env.clk.Advance(time.Minute)
	event, err := env.lifecycle.AddComment(ctx, ticket.ID, env.tech1, "revisando el switch")
	require.NoError(t, err)
	assert.Equal(t, domain.EventCommentAdded, event.Kind)
	require.NotNil(t, event.ActorUserID)
	assert.Equal(t, env.tech1.ID, *event.ActorUserID)

	reloaded, err := env.lifecycle.GetTicket(ctx, ticket.ID, env.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, reloaded.Status)
	assert.Equal(t, env.clk.Now(), reloaded.LastEventAt)

	_, err = env.lifecycle.AddComment(ctx, ticket.ID, env.tech1, "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = env.lifecycle.AddComment(ctx, ticket.ID, env.dispatcher, "no puedo comentar")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestTimelineIsStableAcrossReads(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	ticket := env.createTicket(t)
	_, err := env.lifecycle.Assign(ctx, ticket.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)
	_, err = env.lifecycle.AddComment(ctx, ticket.ID, env.tech1, "primer vistazo")
	require.NoError(t, err)

	first, err := env.lifecycle.GetTimeline(ctx, ticket.ID, env.admin)
	require.NoError(t, err)
	second, err := env.lifecycle.GetTimeline(ctx, ticket.ID, env.admin)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for i := range first {
		assert.Equal(t, int64(i+1), first[i].Seq)
	}
}

func TestListTicketsScopesTechnicians(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()
	mine := env.createTicket(t)
	env.clk.Advance(time.Second)
	other := env.createTicket(t)
	_, err := env.lifecycle.Assign(ctx, mine.ID, env.tech1.ID, env.dispatcher)
	require.NoError(t, err)
	_, err = env.lifecycle.Assign(ctx, other.ID, env.tech2.ID, env.dispatcher)
	require.NoError(t, err)

	all, err := env.lifecycle.ListTickets(ctx, env.dispatcher, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := env.lifecycle.ListTickets(ctx, env.tech1, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, mine.ID, scoped[0].ID)
}

func TestUnknownTicketIsNotFound(t *testing.T) {
	env := newTestEnv(t, config.RoutingConfig{})
	ctx := context.Background()

	_, err := env.lifecycle.GetTicket(ctx, "missing", env.admin)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = env.lifecycle.Assign(ctx, "missing", env.tech1.ID, env.dispatcher)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
