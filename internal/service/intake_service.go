package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/clock"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Intake defaults for simulated email payloads with missing fields.
const (
	defaultReporter = "cliente@dominio.com"
	defaultSubject  = "Sin asunto"
	defaultBody     = "Sin detalle"
)

// IntakeService creates tickets from the simulated email endpoint or the
// dispatcher UI. In automatic routing mode it hands the fresh ticket to the
// router; a routing miss leaves the ticket NEW in the manual queue.
type IntakeService struct {
	tickets    repository.TicketRepository
	timeline   repository.TimelineRepository
	routing    *RoutingService
	lifecycle  *LifecycleService
	clk        clock.Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	TicketRepo   repository.TicketRepository
	TimelineRepo repository.TimelineRepository
	Routing      *RoutingService
	Lifecycle    *LifecycleService
	Clock        clock.Clock
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &IntakeService{
		tickets:    deps.TicketRepo,
		timeline:   deps.TimelineRepo,
		routing:    deps.Routing,
		lifecycle:  deps.Lifecycle,
		clk:        deps.Clock,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTicket registers a new ticket in state NEW with a CREATED timeline
// event, then attempts automatic routing when configured. The returned
// snapshot reflects the routing outcome.
func (s *IntakeService) CreateTicket(ctx context.Context, reporter, subject, body string) (*domain.Ticket, error) {
	reporter = withDefault(reporter, defaultReporter)
	subject = withDefault(subject, defaultSubject)
	body = withDefault(body, defaultBody)

	now := s.clk.Now()
	ticket := &domain.Ticket{
		ID:            uuid.NewString(),
		ReporterEmail: reporter,
		Subject:       subject,
		Body:          body,
		Status:        domain.TicketStatusNew,
		CreatedAt:     now,
		LastEventAt:   now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	event := &domain.Event{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		Kind:      domain.EventCreated,
		Payload:   subject,
		CreatedAt: now,
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		// creation and its CREATED event stand or fall together
		if delErr := s.tickets.Delete(ctx, ticket.ID); delErr != nil {
			s.logger.Error("ticket cleanup failed after event append error",
				zap.String("ticket_id", ticket.ID),
				zap.NamedError("append_error", err),
				zap.Error(delErr))
		}
		return nil, apperrors.MapError(err)
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketCreated,
			TicketID:  ticket.ID,
			Timestamp: now,
			Payload: events.TicketCreatedPayload{
				ReporterEmail: reporter,
				Subject:       subject,
			},
		})
	}

	if s.routing.Mode() == config.RoutingModeAutomatic {
		return s.autoRoute(ctx, ticket)
	}
	return ticket, nil
}

func (s *IntakeService) autoRoute(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	technician, matched, err := s.routing.Match(ctx, ticket.Subject, ticket.Body)
	if err != nil {
		return nil, err
	}
	if !matched {
		s.logger.Info("no routing rule matched; ticket queued for manual dispatch",
			zap.String("ticket_id", ticket.ID))
		return ticket, nil
	}
	assigned, err := s.lifecycle.Assign(ctx, ticket.ID, technician.ID, nil)
	if err != nil {
		// routing is best-effort: the ticket stays NEW for manual dispatch
		s.logger.Warn("automatic assignment failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("technician_id", technician.ID),
			zap.Error(err))
		return ticket, nil
	}
	return assigned, nil
}

func withDefault(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
