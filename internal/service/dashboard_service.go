package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// DashboardService computes metrics on demand by scanning the ticket store.
// Nothing is cached across mutations.
type DashboardService struct {
	tickets repository.TicketRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(tickets repository.TicketRepository) *DashboardService {
	return &DashboardService{tickets: tickets}
}

// DashboardFilter narrows the aggregation window. Technician actors are
// always scoped to their own tickets regardless of TechnicianID.
type DashboardFilter struct {
	TechnicianID *string
	From         *time.Time
	To           *time.Time
}

// Metrics is the dashboard aggregate. AvgResolutionSeconds is nil when the
// window holds no closed tickets ("no data", never a zero divide).
type Metrics struct {
	Total                   int
	OpenCount               int
	ClosedCount             int
	PerStatusCounts         map[domain.TicketStatus]int
	PerTechnicianOpenCounts map[string]int
	AvgResolutionSeconds    *float64
}

// Compute scans tickets in the window and aggregates counts and the mean
// resolution time of closed tickets.
func (s *DashboardService) Compute(ctx context.Context, actor *domain.User, filter DashboardFilter) (*Metrics, error) {
	repoFilter := repository.TicketFilter{
		CreatedFrom: filter.From,
		CreatedTo:   filter.To,
	}
	if actor != nil && actor.Role == domain.RoleTechnician {
		repoFilter.AssignedTechnicianID = &actor.ID
	} else if filter.TechnicianID != nil {
		repoFilter.AssignedTechnicianID = filter.TechnicianID
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	metrics := &Metrics{
		PerStatusCounts:         make(map[domain.TicketStatus]int),
		PerTechnicianOpenCounts: make(map[string]int),
	}
	var totalResolution time.Duration
	for i := range tickets {
		ticket := &tickets[i]
		metrics.Total++
		metrics.PerStatusCounts[ticket.Status]++
		if ticket.Status == domain.TicketStatusClosed && ticket.ClosedAt != nil {
			metrics.ClosedCount++
			totalResolution += ticket.ClosedAt.Sub(ticket.CreatedAt)
			continue
		}
		metrics.OpenCount++
		if ticket.AssignedTechnicianID != nil {
			metrics.PerTechnicianOpenCounts[*ticket.AssignedTechnicianID]++
		}
	}
	if metrics.ClosedCount > 0 {
		avg := totalResolution.Seconds() / float64(metrics.ClosedCount)
		metrics.AvgResolutionSeconds = &avg
	}
	return metrics, nil
}

// ClosedTickets lists closed tickets for export, newest closure first.
// Technicians only receive their own rows.
func (s *DashboardService) ClosedTickets(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusClosed},
	}
	if actor != nil && actor.Role == domain.RoleTechnician {
		repoFilter.AssignedTechnicianID = &actor.ID
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}
