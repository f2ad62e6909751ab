package servicerequest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repfy/db"
)

var (
	ErrNotFound             = errors.New("servicerequest: not found")
	ErrQuoteNotFound        = errors.New("servicerequest: quote not found")
	ErrClientNotFound       = errors.New("servicerequest: client profile not found")
	ErrProfessionalNotFound = errors.New("servicerequest: professional profile not found")
	ErrCategoryNotFound     = errors.New("servicerequest: category not found")
	ErrDuplicateQuote       = errors.New("servicerequest: quote already submitted")
	ErrAlreadyAccepted      = errors.New("servicerequest: another quote already accepted")
)

type Repository interface {
	ClientIDForUser(ctx context.Context, userID string) (string, error)
	ProfessionalIDForUser(ctx context.Context, userID string) (string, error)

	Create(ctx context.Context, r Request) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, scope Scope) ([]Request, error)
	Count(ctx context.Context, scope Scope) (int, error)
	// ListQuotes returns the quotes of each request, newest first. A positive
	// perRequest keeps only that many per request.
	ListQuotes(ctx context.Context, requestIDs []string, perRequest int) (map[string][]Quote, error)

	LockRequest(ctx context.Context, tx pgx.Tx, id string) (Request, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status, at time.Time) error
	InsertQuote(ctx context.Context, tx pgx.Tx, q Quote) (Quote, error)
	LockQuote(ctx context.Context, tx pgx.Tx, id string) (Quote, error)
	SetQuoteStatus(ctx context.Context, tx pgx.Tx, id string, status QuoteStatus) error
	// RejectQuotes rejects every quote of the request except keepID, which
	// may be empty.
	RejectQuotes(ctx context.Context, tx pgx.Tx, requestID, keepID string) error
	Assign(ctx context.Context, tx pgx.Tx, requestID, professionalID string, price float64, at time.Time) error
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const requestSelect = `
	SELECT sr.id, sr.client_id, c.user_id, sr.professional_id, p.user_id, sr.category_id,
	       sr.title, sr.description, sr.address, sr.city, sr.state, sr.zip_code,
	       sr.preferred_date, sr.budget::float8, sr.final_price::float8, sr.status,
	       sr.started_at, sr.completed_at, sr.created_at, sr.updated_at,
	       sc.name, sc.slug,
	       cu.name, cu.avatar,
	       pu.name, pu.avatar, pu.phone
	FROM service_requests sr
	JOIN clients c ON c.id = sr.client_id
	JOIN users cu ON cu.id = c.user_id
	JOIN service_categories sc ON sc.id = sr.category_id
	LEFT JOIN professionals p ON p.id = sr.professional_id
	LEFT JOIN users pu ON pu.id = p.user_id`

const quoteSelect = `
	SELECT q.id, q.service_request_id, q.professional_id, p.user_id, q.message, q.price::float8,
	       q.estimated_duration, q.valid_until, q.status, q.created_at, q.updated_at,
	       u.name, u.avatar
	FROM quotes q
	JOIN professionals p ON p.id = q.professional_id
	JOIN users u ON u.id = p.user_id`

func (r *PGRepository) ClientIDForUser(ctx context.Context, userID string) (string, error) {
	return r.profileID(ctx, `SELECT id FROM clients WHERE user_id = $1`, userID, ErrClientNotFound)
}

func (r *PGRepository) ProfessionalIDForUser(ctx context.Context, userID string) (string, error) {
	return r.profileID(ctx, `SELECT id FROM professionals WHERE user_id = $1`, userID, ErrProfessionalNotFound)
}

func (r *PGRepository) profileID(ctx context.Context, query, userID string, missing error) (string, error) {
	var id string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", missing
		}
		return "", fmt.Errorf("servicerequest: profile lookup: %w", err)
	}
	return id, nil
}

func (r *PGRepository) Create(ctx context.Context, req Request) (Request, error) {
	const query = `
		INSERT INTO service_requests (id, client_id, category_id, title, description, address, city, state,
		                              zip_code, preferred_date, budget, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query, req.ID, req.ClientID, req.CategoryID, req.Title, req.Description,
		req.Address, req.City, req.State, req.ZipCode, req.PreferredDate, req.Budget, req.Status)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Request{}, ErrCategoryNotFound
		}
		return Request{}, fmt.Errorf("servicerequest: create: %w", err)
	}
	return r.Get(ctx, req.ID)
}

func (r *PGRepository) Get(ctx context.Context, id string) (Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, requestSelect+` WHERE sr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("servicerequest: get: %w", err)
	}
	return req, nil
}

func (r *PGRepository) List(ctx context.Context, scope Scope) ([]Request, error) {
	where, args := buildScope(scope)
	args = append(args, scope.Limit, scope.Offset)
	query := fmt.Sprintf(`%s %s ORDER BY sr.created_at DESC LIMIT $%d OFFSET $%d`,
		requestSelect, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("servicerequest: list: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0, scope.Limit)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("servicerequest: scan: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("servicerequest: iterate: %w", err)
	}
	return out, nil
}

func (r *PGRepository) Count(ctx context.Context, scope Scope) (int, error) {
	where, args := buildScope(scope)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM service_requests sr `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("servicerequest: count: %w", err)
	}
	return total, nil
}

func (r *PGRepository) ListQuotes(ctx context.Context, requestIDs []string, perRequest int) (map[string][]Quote, error) {
	out := make(map[string][]Quote, len(requestIDs))
	if len(requestIDs) == 0 {
		return out, nil
	}
	const query = `
		SELECT q.id, q.service_request_id, q.professional_id, p.user_id, q.message, q.price::float8,
		       q.estimated_duration, q.valid_until, q.status, q.created_at, q.updated_at,
		       u.name, u.avatar
		FROM (
			SELECT quotes.*, ROW_NUMBER() OVER (PARTITION BY service_request_id ORDER BY created_at DESC) AS rn
			FROM quotes
			WHERE service_request_id = ANY($1)
		) q
		JOIN professionals p ON p.id = q.professional_id
		JOIN users u ON u.id = p.user_id
		WHERE $2::int <= 0 OR q.rn <= $2::int
		ORDER BY q.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, requestIDs, perRequest)
	if err != nil {
		return nil, fmt.Errorf("servicerequest: list quotes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("servicerequest: scan quote: %w", err)
		}
		out[q.ServiceRequestID] = append(out[q.ServiceRequestID], q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("servicerequest: iterate quotes: %w", err)
	}
	return out, nil
}

func (r *PGRepository) LockRequest(ctx context.Context, tx pgx.Tx, id string) (Request, error) {
	req, err := scanRequest(tx.QueryRow(ctx, requestSelect+` WHERE sr.id = $1 FOR UPDATE OF sr`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("servicerequest: lock request: %w", err)
	}
	return req, nil
}

// SetStatus moves the request to status. Entering COMPLETED stamps
// completed_at and entering IN_PROGRESS stamps started_at once.
func (r *PGRepository) SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status, at time.Time) error {
	const query = `
		UPDATE service_requests
		SET status = $2::text,
		    started_at = CASE WHEN $2::text = 'IN_PROGRESS' THEN COALESCE(started_at, $3) ELSE started_at END,
		    completed_at = CASE WHEN $2::text = 'COMPLETED' THEN $3 ELSE completed_at END,
		    updated_at = now()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, id, string(status), at)
	if err != nil {
		return fmt.Errorf("servicerequest: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) InsertQuote(ctx context.Context, tx pgx.Tx, q Quote) (Quote, error) {
	const query = `
		INSERT INTO quotes (id, service_request_id, professional_id, message, price, estimated_duration, valid_until, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Exec(ctx, query, q.ID, q.ServiceRequestID, q.ProfessionalID, q.Message, q.Price,
		q.EstimatedDuration, q.ValidUntil, string(q.Status))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Quote{}, ErrDuplicateQuote
		}
		return Quote{}, fmt.Errorf("servicerequest: insert quote: %w", err)
	}
	created, err := scanQuote(tx.QueryRow(ctx, quoteSelect+` WHERE q.id = $1`, q.ID))
	if err != nil {
		return Quote{}, fmt.Errorf("servicerequest: reload quote: %w", err)
	}
	return created, nil
}

func (r *PGRepository) LockQuote(ctx context.Context, tx pgx.Tx, id string) (Quote, error) {
	q, err := scanQuote(tx.QueryRow(ctx, quoteSelect+` WHERE q.id = $1 FOR UPDATE OF q`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, ErrQuoteNotFound
		}
		return Quote{}, fmt.Errorf("servicerequest: lock quote: %w", err)
	}
	return q, nil
}

func (r *PGRepository) SetQuoteStatus(ctx context.Context, tx pgx.Tx, id string, status QuoteStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE quotes SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyAccepted
		}
		return fmt.Errorf("servicerequest: set quote status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuoteNotFound
	}
	return nil
}

func (r *PGRepository) RejectQuotes(ctx context.Context, tx pgx.Tx, requestID, keepID string) error {
	var keep *string
	if keepID != "" {
		keep = &keepID
	}
	const query = `
		UPDATE quotes
		SET status = 'REJECTED', updated_at = now()
		WHERE service_request_id = $1
		  AND status <> 'REJECTED'
		  AND ($2::uuid IS NULL OR id <> $2::uuid)
	`
	if _, err := tx.Exec(ctx, query, requestID, keep); err != nil {
		return fmt.Errorf("servicerequest: reject quotes: %w", err)
	}
	return nil
}

func (r *PGRepository) Assign(ctx context.Context, tx pgx.Tx, requestID, professionalID string, price float64, at time.Time) error {
	const query = `
		UPDATE service_requests
		SET professional_id = $2, final_price = $3, status = 'IN_PROGRESS', started_at = $4, updated_at = now()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, requestID, professionalID, price, at)
	if err != nil {
		return fmt.Errorf("servicerequest: assign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func buildScope(scope Scope) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if scope.ClientID != "" {
		args = append(args, scope.ClientID)
		clauses = append(clauses, fmt.Sprintf("sr.client_id = $%d", len(args)))
	}
	if scope.ProfessionalID != "" {
		args = append(args, scope.ProfessionalID)
		clauses = append(clauses, fmt.Sprintf("sr.professional_id = $%d", len(args)))
	}
	if scope.Status != "" {
		args = append(args, string(scope.Status))
		clauses = append(clauses, fmt.Sprintf("sr.status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanRequest(row pgx.Row) (Request, error) {
	var (
		req       Request
		cat       CategoryRef
		client    Party
		proName   *string
		proAvatar *string
		proPhone  *string
	)
	err := row.Scan(
		&req.ID, &req.ClientID, &req.ClientUserID, &req.ProfessionalID, &req.ProfessionalUserID, &req.CategoryID,
		&req.Title, &req.Description, &req.Address, &req.City, &req.State, &req.ZipCode,
		&req.PreferredDate, &req.Budget, &req.FinalPrice, &req.Status,
		&req.StartedAt, &req.CompletedAt, &req.CreatedAt, &req.UpdatedAt,
		&cat.Name, &cat.Slug,
		&client.Name, &client.Avatar,
		&proName, &proAvatar, &proPhone,
	)
	if err != nil {
		return Request{}, err
	}
	cat.ID = req.CategoryID
	req.Category = &cat
	client.ID = req.ClientID
	client.UserID = req.ClientUserID
	req.Client = &client
	if req.ProfessionalID != nil && req.ProfessionalUserID != nil {
		req.Professional = &Party{
			ID:     *req.ProfessionalID,
			UserID: *req.ProfessionalUserID,
			Name:   deref(proName),
			Avatar: proAvatar,
			Phone:  proPhone,
		}
	}
	return req, nil
}

func scanQuote(row pgx.Row) (Quote, error) {
	var (
		q   Quote
		pro Party
	)
	err := row.Scan(
		&q.ID, &q.ServiceRequestID, &q.ProfessionalID, &q.ProfessionalUserID, &q.Message, &q.Price,
		&q.EstimatedDuration, &q.ValidUntil, &q.Status, &q.CreatedAt, &q.UpdatedAt,
		&pro.Name, &pro.Avatar,
	)
	if err != nil {
		return Quote{}, err
	}
	pro.ID = q.ProfessionalID
	pro.UserID = q.ProfessionalUserID
	q.Professional = &pro
	return q, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
