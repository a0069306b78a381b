package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TechniciansHandler manages the technician roster (Admin surface).
type TechniciansHandler struct {
	technicians *service.TechnicianService
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(technicians *service.TechnicianService) *TechniciansHandler {
	return &TechniciansHandler{technicians: technicians}
}

// List GET /admin/technicians.
func (h *TechniciansHandler) List(c *fiber.Ctx) error {
	enabledOnly := c.Query("enabled") == "true"
	technicians, err := h.technicians.List(c.Context(), enabledOnly)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(technicians))
	for i := range technicians {
		items = append(items, dto.UserFromDomain(&technicians[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /admin/technicians.
func (h *TechniciansHandler) Create(c *fiber.Ctx) error {
	var req dto.TechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	technician, err := h.technicians.Create(c.Context(), service.TechnicianInput{
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UserFromDomain(technician)})
}

// Update PUT /admin/technicians/:id.
func (h *TechniciansHandler) Update(c *fiber.Ctx) error {
	var req dto.TechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	technician, err := h.technicians.Update(c.Context(), c.Params("id"), service.TechnicianInput{
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		Enabled:   req.Enabled,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(technician)})
}

// Disable POST /admin/technicians/:id/disable.
func (h *TechniciansHandler) Disable(c *fiber.Ctx) error {
	technician, err := h.technicians.Disable(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(technician)})
}
