package domain

import "time"

// EventKind enumerates timeline event kinds.
type EventKind string

const (
	EventCreated      EventKind = "CREATED"
	EventAssigned     EventKind = "ASSIGNED"
	EventStarted      EventKind = "STARTED"
	EventReassigned   EventKind = "REASSIGNED"
	EventCommentAdded EventKind = "COMMENT_ADDED"
	EventClosed       EventKind = "CLOSED"
	EventReopened     EventKind = "REOPENED"
)

// Event is one append-only timeline entry. Seq is assigned by the store on
// append and is strictly increasing per ticket; the timeline is never
// rewritten. A nil ActorUserID marks a system action such as automatic
// routing.
type Event struct {
	ID          string
	TicketID    string
	Seq         int64
	Kind        EventKind
	ActorUserID *string
	Payload     string
	CreatedAt   time.Time
}
