package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repfy/db"
)

var (
	ErrRequestNotFound = errors.New("review: service request not found")
	ErrAlreadyReviewed = errors.New("review: service already reviewed")
)

type Repository interface {
	LockRequest(ctx context.Context, tx pgx.Tx, requestID string) (RequestState, error)
	Insert(ctx context.Context, tx pgx.Tx, r Review) (Review, error)
	RecomputeRating(ctx context.Context, tx pgx.Tx, targetID string) error
	ListByTarget(ctx context.Context, targetID string, limit, offset int) ([]Review, error)
	CountByTarget(ctx context.Context, targetID string) (int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) LockRequest(ctx context.Context, tx pgx.Tx, requestID string) (RequestState, error) {
	const query = `
		SELECT sr.id, sr.status, c.user_id, p.user_id,
		       EXISTS (SELECT 1 FROM reviews rv WHERE rv.service_request_id = sr.id)
		FROM service_requests sr
		JOIN clients c ON c.id = sr.client_id
		LEFT JOIN professionals p ON p.id = sr.professional_id
		WHERE sr.id = $1
		FOR UPDATE OF sr
	`
	var st RequestState
	err := tx.QueryRow(ctx, query, requestID).Scan(&st.ID, &st.Status, &st.ClientUserID, &st.ProfessionalUserID, &st.Reviewed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RequestState{}, ErrRequestNotFound
		}
		return RequestState{}, fmt.Errorf("review: lock request: %w", err)
	}
	return st, nil
}

func (r *PGRepository) Insert(ctx context.Context, tx pgx.Tx, rv Review) (Review, error) {
	const query = `
		INSERT INTO reviews (id, service_request_id, author_id, target_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := tx.QueryRow(ctx, query, rv.ID, rv.ServiceRequestID, rv.AuthorID, rv.TargetID, rv.Rating, rv.Comment).Scan(&rv.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Review{}, ErrAlreadyReviewed
		}
		return Review{}, fmt.Errorf("review: insert: %w", err)
	}
	return rv, nil
}

// RecomputeRating sets the target's professional rating to the mean of all
// reviews it has received. Targets without a professional profile are left
// untouched. The professional row is locked first so the aggregate is read
// after any concurrent review of the same target has committed.
func (r *PGRepository) RecomputeRating(ctx context.Context, tx pgx.Tx, targetID string) error {
	if _, err := tx.Exec(ctx, `SELECT 1 FROM professionals WHERE user_id = $1 FOR UPDATE`, targetID); err != nil {
		return fmt.Errorf("review: lock professional: %w", err)
	}
	const query = `
		UPDATE professionals p
		SET rating = agg.avg_rating, review_count = agg.total, updated_at = now()
		FROM (
			SELECT COALESCE(AVG(rating), 0)::float8 AS avg_rating, COUNT(*)::int AS total
			FROM reviews WHERE target_id = $1
		) agg
		WHERE p.user_id = $1
	`
	if _, err := tx.Exec(ctx, query, targetID); err != nil {
		return fmt.Errorf("review: recompute rating: %w", err)
	}
	return nil
}

func (r *PGRepository) ListByTarget(ctx context.Context, targetID string, limit, offset int) ([]Review, error) {
	const query = `
		SELECT rv.id, rv.service_request_id, rv.author_id, rv.target_id, rv.rating, rv.comment, rv.created_at,
		       u.name, u.avatar,
		       sr.title, sc.id, sc.name
		FROM reviews rv
		JOIN users u ON u.id = rv.author_id
		JOIN service_requests sr ON sr.id = rv.service_request_id
		JOIN service_categories sc ON sc.id = sr.category_id
		WHERE rv.target_id = $1
		ORDER BY rv.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, targetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("review: list: %w", err)
	}
	defer rows.Close()

	out := make([]Review, 0, limit)
	for rows.Next() {
		var (
			rv     Review
			author Author
			req    RequestSummary
		)
		if err := rows.Scan(&rv.ID, &rv.ServiceRequestID, &rv.AuthorID, &rv.TargetID, &rv.Rating, &rv.Comment, &rv.CreatedAt,
			&author.Name, &author.Avatar, &req.Title, &req.CategoryID, &req.CategoryName); err != nil {
			return nil, fmt.Errorf("review: scan: %w", err)
		}
		author.ID = rv.AuthorID
		req.ID = rv.ServiceRequestID
		rv.Author = &author
		rv.Request = &req
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("review: iterate: %w", err)
	}
	return out, nil
}

func (r *PGRepository) CountByTarget(ctx context.Context, targetID string) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE target_id = $1`, targetID).Scan(&total); err != nil {
		return 0, fmt.Errorf("review: count: %w", err)
	}
	return total, nil
}
