package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketAssigned   EventType = "ticket_assigned"
	EventTicketStarted    EventType = "ticket_started"
	EventTicketReassigned EventType = "ticket_reassigned"
	EventTicketClosed     EventType = "ticket_closed"
	EventTicketReopened   EventType = "ticket_reopened"
	EventTicketCommented  EventType = "ticket_commented"
)

// Event represents a domain event emitted by services. These are the
// in-process notification fan-out, distinct from the durable timeline log.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	TicketID    string      `json:"ticket_id"`
	ActorUserID *string     `json:"actor_user_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReporterEmail string `json:"reporter_email"`
	Subject       string `json:"subject"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID string `json:"technician_id"`
	Automatic    bool   `json:"automatic"`
}

// TicketStatusChangedPayload covers started/closed/reopened notifications.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketReassignedPayload payload. An empty TechnicianID means the ticket
// was returned to the dispatcher queue.
type TicketReassignedPayload struct {
	TechnicianID string `json:"technician_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	BodyPreview string `json:"body_preview"`
}
