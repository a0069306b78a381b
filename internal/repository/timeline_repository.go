package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TimelineRepository stores the append-only audit trail. Events are never
// updated or deleted; ListByTicket returns them in append order.
type TimelineRepository interface {
	Append(ctx context.Context, event *domain.Event) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Event, error)
}

type timelineRepository struct {
	pool *pgxpool.Pool
}

// NewTimelineRepository builds the postgres-backed repository.
func NewTimelineRepository(pool *pgxpool.Pool) TimelineRepository {
	return &timelineRepository{pool: pool}
}

func (r *timelineRepository) Append(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO timeline_events (id, ticket_id, kind, actor_user_id, payload, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING seq`
	return r.pool.QueryRow(ctx, query,
		event.ID,
		event.TicketID,
		event.Kind,
		event.ActorUserID,
		event.Payload,
		event.CreatedAt,
	).Scan(&event.Seq)
}

func (r *timelineRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Event, error) {
	const query = `
        SELECT id, ticket_id, seq, kind, actor_user_id, payload, created_at
        FROM timeline_events WHERE ticket_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(
			&event.ID,
			&event.TicketID,
			&event.Seq,
			&event.Kind,
			&event.ActorUserID,
			&event.Payload,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
