package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/clock"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newTechnicianFixture(t *testing.T) (*TechnicianService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	clk := clock.NewFixed(time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))
	return NewTechnicianService(store.Users(), clk, 4), store
}

func TestCreateTechnician(t *testing.T) {
	svc, _ := newTechnicianFixture(t)
	ctx := context.Background()

	technician, err := svc.Create(ctx, TechnicianInput{Name: "Laura Gomez", Email: "laura@example.com", Specialty: "Redes"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTechnician, technician.Role)
	assert.True(t, technician.Enabled)
	assert.NotEmpty(t, technician.ID)

	_, err = svc.Create(ctx, TechnicianInput{Name: "Otra", Email: "laura@example.com"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = svc.Create(ctx, TechnicianInput{Name: "  ", Email: ""})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateAndDisableTechnician(t *testing.T) {
	svc, _ := newTechnicianFixture(t)
	ctx := context.Background()

	technician, err := svc.Create(ctx, TechnicianInput{Name: "Carlos", Email: "carlos@example.com", Specialty: "Software"})
	require.NoError(t, err)

	enabled := false
	updated, err := svc.Update(ctx, technician.ID, TechnicianInput{Specialty: "Hardware", Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, "Hardware", updated.Specialty)
	assert.False(t, updated.Enabled)

	reenabled := true
	_, err = svc.Update(ctx, technician.ID, TechnicianInput{Enabled: &reenabled})
	require.NoError(t, err)

	disabled, err := svc.Disable(ctx, technician.ID)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	onlyEnabled, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, onlyEnabled)
	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTechnicianLookupRejectsOtherRoles(t *testing.T) {
	svc, store := newTechnicianFixture(t)
	ctx := context.Background()
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin, Name: "Admin", Email: "admin@example.com", Enabled: true}
	require.NoError(t, store.Users().Create(ctx, admin))

	_, err := svc.Disable(ctx, admin.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = svc.Update(ctx, "missing", TechnicianInput{Name: "X"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
