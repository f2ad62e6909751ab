package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the requested category does not exist.
	ErrNotFound = errors.New("category: not found")
	// ErrDuplicateSlug signals another category already derives the same slug.
	ErrDuplicateSlug = errors.New("category: category with this name already exists")
	// ErrParentNotFound signals an unknown parentId.
	ErrParentNotFound = errors.New("category: parent category not found")
)

type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]Category, error)
	Get(ctx context.Context, id string) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, id string, slug *string, params UpdateParams) (Category, error)
	Deactivate(ctx context.Context, id string) (Category, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const categoryColumns = `id, name, slug, description, icon, parent_id, sort_order, active, created_at, updated_at`

// List returns every category, flat, ordered by sort order then name.
func (r *PGRepository) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM service_categories`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("category: list: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0, 16)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("category: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category: iterate: %w", err)
	}
	return out, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM service_categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("category: get: %w", err)
	}
	return c, nil
}

func (r *PGRepository) Create(ctx context.Context, c Category) (Category, error) {
	query := `
		INSERT INTO service_categories (name, slug, description, icon, parent_id, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + categoryColumns

	created, err := scanCategory(r.pool.QueryRow(ctx, query, c.Name, c.Slug, c.Description, c.Icon, c.ParentID, c.Order))
	if err != nil {
		return Category{}, mapWriteError("create", err)
	}
	return created, nil
}

func (r *PGRepository) Update(ctx context.Context, id string, slug *string, params UpdateParams) (Category, error) {
	query := `
		UPDATE service_categories
		SET name = COALESCE($2, name),
		    slug = COALESCE($3, slug),
		    description = COALESCE($4, description),
		    icon = COALESCE($5, icon),
		    sort_order = COALESCE($6, sort_order),
		    active = COALESCE($7, active),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + categoryColumns

	updated, err := scanCategory(r.pool.QueryRow(ctx, query,
		id, params.Name, slug, params.Description, params.Icon, params.Order, params.Active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, mapWriteError("update", err)
	}
	return updated, nil
}

func (r *PGRepository) Deactivate(ctx context.Context, id string) (Category, error) {
	query := `UPDATE service_categories SET active = false, updated_at = now() WHERE id = $1 RETURNING ` + categoryColumns
	c, err := scanCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("category: deactivate: %w", err)
	}
	return c, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateSlug
		case "23503":
			return ErrParentNotFound
		}
	}
	return fmt.Errorf("category: %s: %w", op, err)
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.ParentID, &c.Order, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
