package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/clock"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TechnicianService manages the technician roster (Admin surface).
// Disabling a technician removes them from routing candidates; their
// historical tickets keep pointing at them until reassigned.
type TechnicianService struct {
	users      repository.UserRepository
	clk        clock.Clock
	bcryptCost int
}

// NewTechnicianService constructs the service.
func NewTechnicianService(users repository.UserRepository, clk clock.Clock, bcryptCost int) *TechnicianService {
	return &TechnicianService{users: users, clk: clk, bcryptCost: bcryptCost}
}

// TechnicianInput describes create/update payloads.
type TechnicianInput struct {
	Name      string
	Email     string
	Specialty string
	Password  string
	Enabled   *bool
}

// Create registers a new technician.
func (s *TechnicianService) Create(ctx context.Context, input TechnicianInput) (*domain.User, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	var hash string
	if input.Password != "" {
		var err error
		hash, err = auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	now := s.clk.Now()
	technician := &domain.User{
		ID:           uuid.NewString(),
		Role:         domain.RoleTechnician,
		Name:         input.Name,
		Email:        input.Email,
		Specialty:    input.Specialty,
		PasswordHash: hash,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, technician); err != nil {
		return nil, apperrors.MapError(err)
	}
	return technician, nil
}

// Update modifies technician profile fields and the enabled flag.
func (s *TechnicianService) Update(ctx context.Context, id string, input TechnicianInput) (*domain.User, error) {
	technician, err := s.getTechnician(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		technician.Name = input.Name
	}
	if input.Email != "" {
		technician.Email = input.Email
	}
	if input.Specialty != "" {
		technician.Specialty = input.Specialty
	}
	if input.Enabled != nil {
		technician.Enabled = *input.Enabled
	}
	technician.UpdatedAt = s.clk.Now()
	if err := s.users.Update(ctx, technician); err != nil {
		return nil, apperrors.MapError(err)
	}
	return technician, nil
}

// Disable removes a technician from the routing candidate set.
func (s *TechnicianService) Disable(ctx context.Context, id string) (*domain.User, error) {
	technician, err := s.getTechnician(ctx, id)
	if err != nil {
		return nil, err
	}
	technician.Enabled = false
	technician.UpdatedAt = s.clk.Now()
	if err := s.users.Update(ctx, technician); err != nil {
		return nil, apperrors.MapError(err)
	}
	return technician, nil
}

// List returns technicians, optionally only enabled ones.
func (s *TechnicianService) List(ctx context.Context, enabledOnly bool) ([]domain.User, error) {
	role := domain.RoleTechnician
	filter := repository.UserFilter{Role: &role}
	if enabledOnly {
		enabled := true
		filter.Enabled = &enabled
	}
	return s.users.List(ctx, filter)
}

func (s *TechnicianService) getTechnician(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsTechnician() {
		return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": id})
	}
	return user, nil
}

func newUserID() string {
	return uuid.NewString()
}
