package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/authz"
	"github.com/spec-kit/helpdesk/internal/clock"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// LifecycleService is the ticket state machine. Every transition checks the
// authorization gate first, then the transition table, then mutates the
// ticket and appends exactly one timeline event. Transitions on the same
// ticket serialize on a per-ticket mutex; a failed event append rolls the
// ticket back to its prior snapshot.
type LifecycleService struct {
	tickets    repository.TicketRepository
	timeline   repository.TimelineRepository
	routing    *RoutingService
	clk        clock.Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo   repository.TicketRepository
	TimelineRepo repository.TimelineRepository
	Routing      *RoutingService
	Clock        clock.Clock
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// TicketListFilter describes role-scoped listing parameters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		timeline:   deps.TimelineRepo,
		routing:    deps.Routing,
		clk:        deps.Clock,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Assign moves a NEW ticket to ASSIGNED with the given technician.
// Dispatcher and Admin only; a nil actor is the system (automatic routing).
func (s *LifecycleService) Assign(ctx context.Context, ticketID, technicianID string, actor *domain.User) (*domain.Ticket, error) {
	unlock := s.lockTicket(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpAssign, ticket) {
		return nil, apperrors.NewForbidden("assign not permitted")
	}
	if ticket.Status != domain.TicketStatusNew {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusAssigned))
	}
	technician, err := s.routing.ResolveTechnician(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	prev := *ticket
	ticket.Status = domain.TicketStatusAssigned
	ticket.AssignedTechnicianID = &technician.ID
	ticket.LastEventAt = s.clk.Now()
	if err := s.applyAndLog(ctx, ticket, prev, domain.EventAssigned, actor, technician.Name); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketAssigned, ticket.ID, actor, events.TicketAssignedPayload{
		TechnicianID: technician.ID,
		Automatic:    actor == nil,
	})
	return ticket, nil
}

// Start moves an ASSIGNED ticket to IN_PROGRESS. Owning technician or Admin.
func (s *LifecycleService) Start(ctx context.Context, ticketID string, actor *domain.User) (*domain.Ticket, error) {
	unlock := s.lockTicket(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpStart, ticket) {
		return nil, apperrors.NewForbidden("start not permitted")
	}
	if ticket.Status != domain.TicketStatusAssigned {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusInProgress))
	}

	prev := *ticket
	ticket.Status = domain.TicketStatusInProgress
	ticket.LastEventAt = s.clk.Now()
	if err := s.applyAndLog(ctx, ticket, prev, domain.EventStarted, actor, ""); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketStarted, ticket.ID, actor, events.TicketStatusChangedPayload{
		OldStatus: prev.Status,
		NewStatus: ticket.Status,
	})
	return ticket, nil
}

// Close moves an IN_PROGRESS ticket to CLOSED and stamps ClosedAt. Owning
// technician or Admin.
func (s *LifecycleService) Close(ctx context.Context, ticketID string, actor *domain.User) (*domain.Ticket, error) {
	unlock := s.lockTicket(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpClose, ticket) {
		return nil, apperrors.NewForbidden("close not permitted")
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusClosed))
	}

	prev := *ticket
	now := s.clk.Now()
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.LastEventAt = now
	if err := s.applyAndLog(ctx, ticket, prev, domain.EventClosed, actor, ""); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketClosed, ticket.ID, actor, events.TicketStatusChangedPayload{
		OldStatus: prev.Status,
		NewStatus: ticket.Status,
	})
	return ticket, nil
}

// Reassign moves an ASSIGNED or IN_PROGRESS ticket to another technician,
// or back to the dispatcher queue when technicianID is nil or empty (a
// "return"). Returning is open to the owning technician as well.
func (s *LifecycleService) Reassign(ctx context.Context, ticketID string, technicianID *string, actor *domain.User, reason string) (*domain.Ticket, error) {
	if technicianID == nil || *technicianID == "" {
		return s.returnToQueue(ctx, ticketID, actor, reason)
	}

	unlock := s.lockTicket(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpReassign, ticket) {
		return nil, apperrors.NewForbidden("reassign not permitted")
	}
	if ticket.Status != domain.TicketStatusAssigned && ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusAssigned))
	}
	technician, err := s.routing.ResolveTechnician(ctx, *technicianID)
	if err != nil {
		return nil, err
	}

	prev := *ticket
	ticket.Status = domain.TicketStatusAssigned
	ticket.AssignedTechnicianID = &technician.ID
	ticket.LastEventAt = s.clk.Now()
	if err := s.applyAndLog(ctx, ticket, prev, domain.EventReassigned, actor, reason); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketReassigned, ticket.ID, actor, events.TicketReassignedPayload{
		TechnicianID: technician.ID,
		Reason:       reason,
	})
	return ticket, nil
}

// Return puts an ASSIGNED or IN_PROGRESS ticket back in the dispatcher
// queue (state NEW, no technician).
func (s *LifecycleService) Return(ctx context.Context, ticketID string, actor *domain.User, reason string) (*domain.Ticket, error) {
	return s.returnToQueue(ctx, ticketID, actor, reason)
}

func (s *LifecycleService) returnToQueue(ctx context.Context, ticketID string, actor *domain.User, reason string) (*domain.Ticket, error) {
	unlock := s.lockTicket(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpReturn, ticket) {
		return nil, apperrors.NewForbidden("return not permitted")
	}
	if ticket.Status != domain.TicketStatusAssigned && ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusNew))
	}

	prev := *ticket
	ticket.Status = domain.TicketStatusNew
	ticket.AssignedTechnicianID = nil
	ticket.LastEventAt = s.clk.Now()
	if err := s.applyAndLog(ctx, ticket, prev, domain.EventReassigned, actor, reason); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketReassigned, ticket.ID, actor, events.TicketReassignedPayload{
		Reason: reason,
	})
	return ticket, nil
}

// Reopen moves a CLOSED ticket back to ASSIGNED with the given technician.
// Admin only.
func (s *LifecycleService) Reopen(ctx context.Context, ticketID, technicianID string, actor *domain.User) (*domain.Ticket, error) {
	unlock := s.lockTicket(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpReopen, ticket) {
		return nil, apperrors.NewForbidden("reopen not permitted")
	}
	if ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusAssigned))
	}
	technician, err := s.routing.ResolveTechnician(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	prev := *ticket
	ticket.Status = domain.TicketStatusAssigned
	ticket.AssignedTechnicianID = &technician.ID
	ticket.ClosedAt = nil
	ticket.LastEventAt = s.clk.Now()
	if err := s.applyAndLog(ctx, ticket, prev, domain.EventReopened, actor, technician.Name); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketReopened, ticket.ID, actor, events.TicketStatusChangedPayload{
		OldStatus: prev.Status,
		NewStatus: ticket.Status,
	})
	return ticket, nil
}

// AddComment appends a COMMENT_ADDED event without changing status. Owning
// technician or Admin.
func (s *LifecycleService) AddComment(ctx context.Context, ticketID string, actor *domain.User, text string) (*domain.Event, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text required", nil)
	}

	unlock := s.lockTicket(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpComment, ticket) {
		return nil, apperrors.NewForbidden("comment not permitted")
	}

	prev := *ticket
	ticket.LastEventAt = s.clk.Now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	event, err := s.appendEvent(ctx, ticket, prev, domain.EventCommentAdded, actor, text)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketCommented, ticket.ID, actor, events.TicketCommentedPayload{
		BodyPreview: stringPreview(text, 120),
	})
	return event, nil
}

// GetTicket fetches a ticket snapshot, enforcing read scope.
func (s *LifecycleService) GetTicket(ctx context.Context, ticketID string, actor *domain.User) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpView, ticket) {
		return nil, apperrors.NewForbidden("view not permitted")
	}
	return ticket, nil
}

// GetTimeline returns the ticket's events in append order. Re-reading with
// no intervening writes yields the same sequence.
func (s *LifecycleService) GetTimeline(ctx context.Context, ticketID string, actor *domain.User) ([]domain.Event, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.OpView, ticket) {
		return nil, apperrors.NewForbidden("view not permitted")
	}
	return s.timeline.ListByTicket(ctx, ticket.ID)
}

// ListTickets returns tickets visible to the actor. Technicians only see
// their own assignments.
func (s *LifecycleService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:    filter.Statuses,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if actor != nil && actor.Role == domain.RoleTechnician {
		repoFilter.AssignedTechnicianID = &actor.ID
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

func (s *LifecycleService) lockTicket(id string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

func (s *LifecycleService) loadTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// applyAndLog persists the mutated ticket and appends its event. The
// mutation and the append succeed or fail together: an append failure
// restores the prior snapshot.
func (s *LifecycleService) applyAndLog(ctx context.Context, ticket *domain.Ticket, prev domain.Ticket, kind domain.EventKind, actor *domain.User, payload string) error {
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}
	_, err := s.appendEvent(ctx, ticket, prev, kind, actor, payload)
	return err
}

func (s *LifecycleService) appendEvent(ctx context.Context, ticket *domain.Ticket, prev domain.Ticket, kind domain.EventKind, actor *domain.User, payload string) (*domain.Event, error) {
	event := &domain.Event{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: ticket.LastEventAt,
	}
	if actor != nil {
		actorID := actor.ID
		event.ActorUserID = &actorID
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		if rbErr := s.tickets.Update(ctx, &prev); rbErr != nil {
			s.logger.Error("ticket rollback failed after event append error",
				zap.String("ticket_id", ticket.ID),
				zap.NamedError("append_error", err),
				zap.Error(rbErr))
		}
		return nil, apperrors.MapError(err)
	}
	return event, nil
}

func (s *LifecycleService) publish(ctx context.Context, eventType events.EventType, ticketID string, actor *domain.User, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Timestamp: s.clk.Now(),
		Payload:   payload,
	}
	if actor != nil {
		actorID := actor.ID
		event.ActorUserID = &actorID
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// stringPreview truncates on rune boundaries so multi-byte text stays valid.
func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
