package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// IntakeHandler simulates the email intake channel: a single synchronous
// call into ticket creation, no retries or queueing.
type IntakeHandler struct {
	intake *service.IntakeService
}

// NewIntakeHandler constructs handler.
func NewIntakeHandler(intake *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

// Email POST /intake/email.
func (h *IntakeHandler) Email(c *fiber.Ctx) error {
	var req dto.IntakeEmailRequest
	// missing or malformed payloads fall back to intake defaults
	_ = c.BodyParser(&req)

	ticket, err := h.intake.CreateTicket(c.Context(), req.From, req.Subject, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})
}
