package handlers

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// ExportsHandler streams closed tickets as CSV. Technicians only receive
// their own rows.
type ExportsHandler struct {
	dashboard *service.DashboardService
}

// NewExportsHandler constructs handler.
func NewExportsHandler(dashboard *service.DashboardService) *ExportsHandler {
	return &ExportsHandler{dashboard: dashboard}
}

// Closed GET /exports/closed.
func (h *ExportsHandler) Closed(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	tickets, err := h.dashboard.ClosedTickets(c.Context(), actor)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{"id", "reporter", "subject", "technician", "status", "created_at", "closed_at"}
	if err := writer.Write(header); err != nil {
		return apperrors.NewInternalError(err)
	}
	for i := range tickets {
		ticket := &tickets[i]
		technician := ""
		if ticket.AssignedTechnicianID != nil {
			technician = *ticket.AssignedTechnicianID
		}
		closedAt := ""
		if ticket.ClosedAt != nil {
			closedAt = ticket.ClosedAt.Format("2006-01-02T15:04:05-07:00")
		}
		row := []string{
			ticket.ID,
			ticket.ReporterEmail,
			ticket.Subject,
			technician,
			string(ticket.Status),
			ticket.CreatedAt.Format("2006-01-02T15:04:05-07:00"),
			closedAt,
		}
		if err := writer.Write(row); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewInternalError(err)
	}

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", "attachment; filename=tickets_cerrados.csv")
	c.Set("Content-Length", strconv.Itoa(buf.Len()))
	return c.Send(buf.Bytes())
}
