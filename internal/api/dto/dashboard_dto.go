package dto

import "github.com/spec-kit/helpdesk/internal/domain"

// DashboardResponse is the aggregated metrics view. AvgResolutionSeconds is
// null when no closed ticket falls inside the window.
type DashboardResponse struct {
	Total                   int                         `json:"total"`
	OpenCount               int                         `json:"open"`
	ClosedCount             int                         `json:"closed"`
	PerStatusCounts         map[domain.TicketStatus]int `json:"per_status_counts"`
	PerTechnicianOpenCounts map[string]int              `json:"per_technician_open_counts"`
	AvgResolutionSeconds    *float64                    `json:"avg_resolution_seconds"`
}
