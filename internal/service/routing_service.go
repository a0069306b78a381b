package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// RoutingService decides which technician a ticket goes to: an explicit
// dispatcher choice in manual mode, or the first matching keyword rule in
// automatic mode.
type RoutingService struct {
	users repository.UserRepository
	cfg   config.RoutingConfig
}

// NewRoutingService creates the service.
func NewRoutingService(users repository.UserRepository, cfg config.RoutingConfig) *RoutingService {
	return &RoutingService{users: users, cfg: cfg}
}

// Mode reports the configured routing mode.
func (s *RoutingService) Mode() config.RoutingMode {
	return s.cfg.Mode
}

// ResolveTechnician validates an assignment target. Unknown ids, non
// technician users, and disabled technicians all fail with
// TECHNICIAN_UNAVAILABLE so the caller can pick another or leave the
// ticket unassigned.
func (s *RoutingService) ResolveTechnician(ctx context.Context, technicianID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewTechnicianUnavailable(technicianID)
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsTechnician() || !user.Enabled {
		return nil, apperrors.NewTechnicianUnavailable(technicianID)
	}
	return user, nil
}

// Match scans subject and body against the ordered rules and returns the
// technician of the first rule whose keyword appears, case-insensitive.
// Rules pointing at an unavailable technician are skipped so a disabled
// technician can never be chosen. A false result means the ticket stays
// in the manual dispatch queue.
func (s *RoutingService) Match(ctx context.Context, subject, body string) (*domain.User, bool, error) {
	haystack := strings.ToLower(subject + " " + body)
	for _, rule := range s.cfg.Rules {
		if !ruleMatches(haystack, rule) {
			continue
		}
		technician, err := s.ResolveTechnician(ctx, rule.TechnicianID)
		if err != nil {
			if apperrors.IsCode(err, "TECHNICIAN_UNAVAILABLE") {
				continue
			}
			return nil, false, err
		}
		return technician, true, nil
	}
	return nil, false, nil
}

func ruleMatches(haystack string, rule config.RoutingRule) bool {
	for _, keyword := range rule.Keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
