package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the notification does not exist or belongs to another user.
var ErrNotFound = errors.New("notification: not found")

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Notification, error)
	Count(ctx context.Context, filters ListFilters) (int, error)
	MarkRead(ctx context.Context, id, userID string) (Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const notificationColumns = `id, user_id, type, title, message, data, read, created_at`

func (r *PGRepository) List(ctx context.Context, filters ListFilters) ([]Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND ($2::bool = false OR read = false)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filters.UserID, filters.UnreadOnly,
		filters.PageSize, (filters.Page-1)*filters.PageSize)
	if err != nil {
		return nil, fmt.Errorf("notification: list: %w", err)
	}
	defer rows.Close()

	out := make([]Notification, 0, filters.PageSize)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notification: scan: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notification: iterate: %w", err)
	}
	return out, nil
}

func (r *PGRepository) Count(ctx context.Context, filters ListFilters) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND ($2::bool = false OR read = false)
	`, filters.UserID, filters.UnreadOnly).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("notification: count: %w", err)
	}
	return total, nil
}

func (r *PGRepository) MarkRead(ctx context.Context, id, userID string) (Notification, error) {
	query := `
		UPDATE notifications SET read = true
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns
	n, err := scanNotification(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("notification: mark read: %w", err)
	}
	return n, nil
}

func (r *PGRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("notification: mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Data, &n.Read, &n.CreatedAt)
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	return n, err
}
