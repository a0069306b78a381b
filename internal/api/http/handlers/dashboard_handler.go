package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
)

// DashboardHandler exposes on-demand metrics.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get GET /dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)

	filter := service.DashboardFilter{}
	if technicianID := c.Query("technician_id"); technicianID != "" {
		filter.TechnicianID = &technicianID
	}
	if from := parseTime(c.Query("from")); from != nil {
		filter.From = from
	}
	if to := parseTime(c.Query("to")); to != nil {
		filter.To = to
	}

	metrics, err := h.dashboard.Compute(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Total:                   metrics.Total,
		OpenCount:               metrics.OpenCount,
		ClosedCount:             metrics.ClosedCount,
		PerStatusCounts:         metrics.PerStatusCounts,
		PerTechnicianOpenCounts: metrics.PerTechnicianOpenCounts,
		AvgResolutionSeconds:    metrics.AvgResolutionSeconds,
	}})
}
