package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// IntakeEmailRequest is the simulated email payload.
type IntakeEmailRequest struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// CreateTicketRequest payload for the dispatcher UI.
type CreateTicketRequest struct {
	ReporterEmail string `json:"reporter_email"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// AssignRequest payload.
type AssignRequest struct {
	TechnicianID string `json:"technician_id"`
}

// ReassignRequest payload. A nil or empty technician id returns the ticket
// to the dispatcher queue.
type ReassignRequest struct {
	TechnicianID *string `json:"technician_id"`
	Reason       string  `json:"reason"`
}

// ReopenRequest payload.
type ReopenRequest struct {
	TechnicianID string `json:"technician_id"`
}

// CommentRequest payload.
type CommentRequest struct {
	Text string `json:"text"`
}

// TicketResponse is the ticket snapshot returned by every operation.
type TicketResponse struct {
	ID                   string              `json:"id"`
	ReporterEmail        string              `json:"reporter_email"`
	Subject              string              `json:"subject"`
	Body                 string              `json:"body"`
	Status               domain.TicketStatus `json:"status"`
	AssignedTechnicianID *string             `json:"assigned_technician_id"`
	CreatedAt            time.Time           `json:"created_at"`
	ClosedAt             *time.Time          `json:"closed_at"`
	LastEventAt          time.Time           `json:"last_event_at"`
}

// EventResponse is a timeline entry.
type EventResponse struct {
	ID          string           `json:"id"`
	Seq         int64            `json:"seq"`
	Kind        domain.EventKind `json:"kind"`
	ActorUserID *string          `json:"actor_user_id"`
	Payload     string           `json:"payload,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TicketFromDomain maps a ticket snapshot.
func TicketFromDomain(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                   ticket.ID,
		ReporterEmail:        ticket.ReporterEmail,
		Subject:              ticket.Subject,
		Body:                 ticket.Body,
		Status:               ticket.Status,
		AssignedTechnicianID: ticket.AssignedTechnicianID,
		CreatedAt:            ticket.CreatedAt,
		ClosedAt:             ticket.ClosedAt,
		LastEventAt:          ticket.LastEventAt,
	}
}

// EventFromDomain maps a timeline event.
func EventFromDomain(event *domain.Event) EventResponse {
	return EventResponse{
		ID:          event.ID,
		Seq:         event.Seq,
		Kind:        event.Kind,
		ActorUserID: event.ActorUserID,
		Payload:     event.Payload,
		CreatedAt:   event.CreatedAt,
	}
}
