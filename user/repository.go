package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that the user does not exist.
var ErrNotFound = errors.New("user: not found")

type Repository interface {
	Get(ctx context.Context, id string) (Profile, error)
	Update(ctx context.Context, id string, params UpdateParams) error
	List(ctx context.Context, filters ListFilters) ([]Summary, error)
	Count(ctx context.Context, filters ListFilters) (int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Get(ctx context.Context, id string) (Profile, error) {
	const query = `
		SELECT u.id, u.email, u.name, u.phone, u.avatar, u.role, u.status, u.created_at, u.updated_at,
		       c.id, c.address, c.city, c.state, c.zip_code,
		       p.id, p.bio, p.pricing_type, p.hourly_rate, p.verified, p.rating, p.review_count
		FROM users u
		LEFT JOIN clients c ON c.user_id = u.id
		LEFT JOIN professionals p ON p.user_id = u.id
		WHERE u.id = $1
	`

	var (
		p         Profile
		clientID  *string
		client    ClientProfile
		proID     *string
		pro       ProfessionalSummary
		proPrice  *string
		proVer    *bool
		proRating *float64
		proCount  *int
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.Name, &p.Phone, &p.Avatar, &p.Role, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&clientID, &client.Address, &client.City, &client.State, &client.ZipCode,
		&proID, &pro.Bio, &proPrice, &pro.HourlyRate, &proVer, &proRating, &proCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("user: get: %w", err)
	}

	if clientID != nil {
		client.ID = *clientID
		p.Client = &client
	}
	if proID != nil {
		pro.ID = *proID
		pro.PricingType = deref(proPrice)
		pro.Verified = proVer != nil && *proVer
		if proRating != nil {
			pro.Rating = *proRating
		}
		if proCount != nil {
			pro.ReviewCount = *proCount
		}
		p.Professional = &pro
	}
	return p, nil
}

// Update applies the non-nil fields of params.
func (r *PGRepository) Update(ctx context.Context, id string, params UpdateParams) error {
	const query = `
		UPDATE users
		SET name = COALESCE($2, name),
		    phone = COALESCE($3, phone),
		    avatar = COALESCE($4, avatar),
		    updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, params.Name, params.Phone, params.Avatar)
	if err != nil {
		return fmt.Errorf("user: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) List(ctx context.Context, filters ListFilters) ([]Summary, error) {
	where, args := buildWhere(filters)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)
	query := fmt.Sprintf(`
		SELECT id, email, name, role, status, created_at
		FROM users
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0, filters.PageSize)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Email, &s.Name, &s.Role, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("user: scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user: iterate: %w", err)
	}
	return out, nil
}

func (r *PGRepository) Count(ctx context.Context, filters ListFilters) (int, error) {
	where, args := buildWhere(filters)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("user: count: %w", err)
	}
	return total, nil
}

func buildWhere(filters ListFilters) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filters.Role != "" {
		args = append(args, filters.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
