package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists and queries audit events.
type Repository interface {
	Insert(ctx context.Context, event Event) error
	Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert writes one event into audit_logs.
func (r *PGRepository) Insert(ctx context.Context, event Event) error {
	fields, err := json.Marshal(event.UpdatedFields)
	if err != nil {
		return err
	}
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, object_type, object_id, updated_fields, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ActorID, event.Action, event.ObjectType, event.ObjectID, fields, at)
	return err
}

// Window returns events newest first for the given filters.
func (r *PGRepository) Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT actor_id, action, object_type, object_id, updated_fields, occurred_at
		 FROM audit_logs
		 WHERE ($1 = '' OR action = $1)
		   AND ($2 = '' OR object_type = $2)
		   AND ($3 = 0 OR actor_id = $3)
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $4 OFFSET $5`,
		filters.Action, filters.ObjectType, filters.ActorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var fields []byte
		if err := rows.Scan(&event.ActorID, &event.Action, &event.ObjectType, &event.ObjectID, &fields, &event.At); err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &event.UpdatedFields); err != nil {
				return nil, err
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
