package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

// NotificationService logs notification stubs for domain events. No real
// email delivery happens; intake is simulated and so is the outbound side.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.logEvent("TicketCreated"))
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.logEvent("TicketAssigned"))
	n.dispatcher.Subscribe(events.EventTicketStarted, n.logEvent("TicketStarted"))
	n.dispatcher.Subscribe(events.EventTicketReassigned, n.logEvent("TicketReassigned"))
	n.dispatcher.Subscribe(events.EventTicketClosed, n.logEvent("TicketClosed"))
	n.dispatcher.Subscribe(events.EventTicketReopened, n.logEvent("TicketReopened"))
	n.dispatcher.Subscribe(events.EventTicketCommented, n.logEvent("TicketCommented"))
}

func (n *NotificationService) logEvent(name string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		n.logger.Info(name,
			zap.String("ticket_id", event.TicketID),
			zap.Any("payload", event.Payload))
		return nil
	}
}
