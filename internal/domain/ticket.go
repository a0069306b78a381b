package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Ticket is the aggregate for support requests.
//
// Status and AssignedTechnicianID move together: NEW means no technician,
// ASSIGNED and IN_PROGRESS require one. ClosedAt is set exactly when the
// ticket enters CLOSED and cleared again on reopen.
type Ticket struct {
	ID                   string
	ReporterEmail        string
	Subject              string
	Body                 string
	Status               TicketStatus
	AssignedTechnicianID *string
	CreatedAt            time.Time
	ClosedAt             *time.Time
	LastEventAt          time.Time
}

// IsOpen reports whether the ticket still counts toward open metrics.
func (t *Ticket) IsOpen() bool {
	return t.Status != TicketStatusClosed
}

// AssignedTo reports whether the ticket is currently owned by the given technician.
func (t *Ticket) AssignedTo(technicianID string) bool {
	return t.AssignedTechnicianID != nil && *t.AssignedTechnicianID == technicianID
}
