package professional

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repfy/db"
)

var (
	ErrNotFound         = errors.New("professional: not found")
	ErrProfileNotFound  = errors.New("professional: profile not found")
	ErrCategoryNotFound = errors.New("professional: category not found")
)

type Repository interface {
	IDForUser(ctx context.Context, userID string) (string, error)
	Get(ctx context.Context, id string) (Professional, error)
	Update(ctx context.Context, id string, params UpdateParams) error
	AddService(ctx context.Context, professionalID string, params AddServiceParams) (OfferedService, error)
	ListServices(ctx context.Context, professionalIDs []string) (map[string][]OfferedService, error)
	ListAvailability(ctx context.Context, professionalID string) ([]Slot, error)
	ReplaceAvailability(ctx context.Context, tx pgx.Tx, professionalID string, slots []Slot) (int, error)
	AddPortfolioItem(ctx context.Context, professionalID string, params AddPortfolioItemParams) (PortfolioItem, error)
	ListPortfolio(ctx context.Context, professionalID string) ([]PortfolioItem, error)
	Search(ctx context.Context, filters SearchFilters) ([]Professional, error)
	CountSearch(ctx context.Context, filters SearchFilters) (int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const professionalColumns = `
	p.id, p.user_id, p.bio, p.pricing_type, p.hourly_rate::float8, p.service_radius,
	p.address, p.city, p.state, p.zip_code, p.latitude, p.longitude,
	p.verified, p.rating, p.review_count, p.created_at, p.updated_at,
	u.name, u.avatar, u.created_at`

func (r *PGRepository) IDForUser(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM professionals WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProfileNotFound
		}
		return "", fmt.Errorf("professional: lookup by user: %w", err)
	}
	return id, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Professional, error) {
	query := `SELECT ` + professionalColumns + `
		FROM professionals p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1`
	p, err := scanProfessional(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Professional{}, ErrNotFound
		}
		return Professional{}, fmt.Errorf("professional: get: %w", err)
	}
	return p, nil
}

// Update applies the non-nil fields of params.
func (r *PGRepository) Update(ctx context.Context, id string, params UpdateParams) error {
	const query = `
		UPDATE professionals
		SET bio = COALESCE($2, bio),
		    pricing_type = COALESCE($3, pricing_type),
		    hourly_rate = COALESCE($4, hourly_rate),
		    service_radius = COALESCE($5, service_radius),
		    address = COALESCE($6, address),
		    city = COALESCE($7, city),
		    state = COALESCE($8, state),
		    zip_code = COALESCE($9, zip_code),
		    latitude = COALESCE($10, latitude),
		    longitude = COALESCE($11, longitude),
		    updated_at = now()
		WHERE id = $1
	`
	var pricing *string
	if params.PricingType != nil {
		s := string(*params.PricingType)
		pricing = &s
	}
	tag, err := r.pool.Exec(ctx, query, id, params.Bio, pricing, params.HourlyRate, params.ServiceRadius,
		params.Address, params.City, params.State, params.ZipCode, params.Latitude, params.Longitude)
	if err != nil {
		return fmt.Errorf("professional: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) AddService(ctx context.Context, professionalID string, params AddServiceParams) (OfferedService, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO professional_services (professional_id, category_id, title, description, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, professional_id, category_id, title, description, price, active, created_at
		)
		SELECT i.id, i.professional_id, i.category_id, i.title, i.description, i.price::float8, i.active, i.created_at,
		       c.name, c.slug
		FROM inserted i
		JOIN service_categories c ON c.id = i.category_id
	`
	var (
		s   OfferedService
		cat CategoryRef
	)
	err := r.pool.QueryRow(ctx, query, professionalID, params.CategoryID, params.Title, params.Description, params.Price).Scan(
		&s.ID, &s.ProfessionalID, &s.CategoryID, &s.Title, &s.Description, &s.Price, &s.Active, &s.CreatedAt,
		&cat.Name, &cat.Slug,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return OfferedService{}, ErrCategoryNotFound
		}
		return OfferedService{}, fmt.Errorf("professional: add service: %w", err)
	}
	cat.ID = s.CategoryID
	s.Category = &cat
	return s, nil
}

// ListServices returns the active services of each given professional.
func (r *PGRepository) ListServices(ctx context.Context, professionalIDs []string) (map[string][]OfferedService, error) {
	out := make(map[string][]OfferedService, len(professionalIDs))
	if len(professionalIDs) == 0 {
		return out, nil
	}
	const query = `
		SELECT s.id, s.professional_id, s.category_id, s.title, s.description, s.price::float8, s.active, s.created_at,
		       c.name, c.slug
		FROM professional_services s
		JOIN service_categories c ON c.id = s.category_id
		WHERE s.professional_id = ANY($1) AND s.active
		ORDER BY s.created_at
	`
	rows, err := r.pool.Query(ctx, query, professionalIDs)
	if err != nil {
		return nil, fmt.Errorf("professional: list services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s   OfferedService
			cat CategoryRef
		)
		if err := rows.Scan(&s.ID, &s.ProfessionalID, &s.CategoryID, &s.Title, &s.Description, &s.Price, &s.Active, &s.CreatedAt,
			&cat.Name, &cat.Slug); err != nil {
			return nil, fmt.Errorf("professional: scan service: %w", err)
		}
		cat.ID = s.CategoryID
		s.Category = &cat
		out[s.ProfessionalID] = append(out[s.ProfessionalID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("professional: iterate services: %w", err)
	}
	return out, nil
}

func (r *PGRepository) ListAvailability(ctx context.Context, professionalID string) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day_of_week, start_time, end_time
		FROM availability
		WHERE professional_id = $1
		ORDER BY day_of_week, start_time
	`, professionalID)
	if err != nil {
		return nil, fmt.Errorf("professional: list availability: %w", err)
	}
	slots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Slot, error) {
		var s Slot
		err := row.Scan(&s.DayOfWeek, &s.StartTime, &s.EndTime)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("professional: scan availability: %w", err)
	}
	return slots, nil
}

// ReplaceAvailability swaps the professional's weekly slots for slots.
func (r *PGRepository) ReplaceAvailability(ctx context.Context, tx pgx.Tx, professionalID string, slots []Slot) (int, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM availability WHERE professional_id = $1`, professionalID); err != nil {
		return 0, fmt.Errorf("professional: clear availability: %w", err)
	}
	if len(slots) == 0 {
		return 0, nil
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"availability"},
		[]string{"professional_id", "day_of_week", "start_time", "end_time"},
		pgx.CopyFromSlice(len(slots), func(i int) ([]any, error) {
			return []any{professionalID, int16(slots[i].DayOfWeek), slots[i].StartTime, slots[i].EndTime}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("professional: insert availability: %w", err)
	}
	return int(n), nil
}

func (r *PGRepository) AddPortfolioItem(ctx context.Context, professionalID string, params AddPortfolioItemParams) (PortfolioItem, error) {
	const query = `
		INSERT INTO portfolio_items (professional_id, title, description, image_url, sort_order)
		VALUES ($1, $2, $3, $4, COALESCE($5, 0))
		RETURNING id, professional_id, title, description, image_url, sort_order, created_at
	`
	item, err := scanPortfolioItem(r.pool.QueryRow(ctx, query,
		professionalID, params.Title, params.Description, params.ImageURL, params.Order))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return PortfolioItem{}, ErrProfileNotFound
		}
		return PortfolioItem{}, fmt.Errorf("professional: add portfolio item: %w", err)
	}
	return item, nil
}

// ListPortfolio returns the professional's portfolio by ascending order.
func (r *PGRepository) ListPortfolio(ctx context.Context, professionalID string) ([]PortfolioItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, title, description, image_url, sort_order, created_at
		FROM portfolio_items
		WHERE professional_id = $1
		ORDER BY sort_order, created_at
	`, professionalID)
	if err != nil {
		return nil, fmt.Errorf("professional: list portfolio: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PortfolioItem, error) {
		return scanPortfolioItem(row)
	})
	if err != nil {
		return nil, fmt.Errorf("professional: scan portfolio: %w", err)
	}
	return items, nil
}

func scanPortfolioItem(row pgx.Row) (PortfolioItem, error) {
	var item PortfolioItem
	err := row.Scan(&item.ID, &item.ProfessionalID, &item.Title, &item.Description, &item.ImageURL, &item.Order, &item.CreatedAt)
	return item, err
}

func (r *PGRepository) Search(ctx context.Context, filters SearchFilters) ([]Professional, error) {
	where, args := buildSearchWhere(filters)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)
	query := fmt.Sprintf(`SELECT %s
		FROM professionals p
		JOIN users u ON u.id = p.user_id
		%s
		ORDER BY p.rating DESC, p.review_count DESC, p.created_at
		LIMIT $%d OFFSET $%d`, professionalColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("professional: search: %w", err)
	}
	defer rows.Close()

	out := make([]Professional, 0, filters.PageSize)
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, fmt.Errorf("professional: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("professional: iterate: %w", err)
	}
	return out, nil
}

func (r *PGRepository) CountSearch(ctx context.Context, filters SearchFilters) (int, error) {
	where, args := buildSearchWhere(filters)
	var total int
	query := `SELECT COUNT(*) FROM professionals p ` + where
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("professional: count: %w", err)
	}
	return total, nil
}

func buildSearchWhere(filters SearchFilters) (string, []any) {
	clauses := []string{"p.verified", "p.rating >= $1"}
	args := []any{filters.MinRating}
	if filters.City != "" {
		args = append(args, filters.City)
		clauses = append(clauses, fmt.Sprintf("p.city = $%d", len(args)))
	}
	if filters.State != "" {
		args = append(args, filters.State)
		clauses = append(clauses, fmt.Sprintf("p.state = $%d", len(args)))
	}
	if filters.CategoryID != "" {
		args = append(args, filters.CategoryID)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM professional_services s WHERE s.professional_id = p.id AND s.active AND s.category_id = $%d)",
			len(args)))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanProfessional(row pgx.Row) (Professional, error) {
	var (
		p Professional
		u UserSummary
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Bio, &p.PricingType, &p.HourlyRate, &p.ServiceRadius,
		&p.Address, &p.City, &p.State, &p.ZipCode, &p.Latitude, &p.Longitude,
		&p.Verified, &p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
		&u.Name, &u.Avatar, &u.CreatedAt,
	)
	if err != nil {
		return Professional{}, err
	}
	u.ID = p.UserID
	p.User = &u
	return p, nil
}
