package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesConfiguredZone(t *testing.T) {
	clk := New("America/Lima")
	now := clk.Now()

	_, offset := now.Zone()
	assert.Equal(t, -5*60*60, offset)
}

func TestNewFallsBackToFixedOffset(t *testing.T) {
	clk := New("Not/AZone")
	now := clk.Now()

	_, offset := now.Zone()
	assert.Equal(t, -5*60*60, offset)
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := NewFixed(start)
	require.Equal(t, start, clk.Now())

	clk.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), clk.Now())

	later := start.Add(24 * time.Hour)
	clk.Set(later)
	assert.Equal(t, later, clk.Now())
}
