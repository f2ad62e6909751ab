// Package servicerequest runs the marketplace workflow: clients post service
// requests, professionals quote on them, and accepting a quote assigns the
// request and starts the job.
package servicerequest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"repfy/auth"
	"repfy/logging"
	"repfy/notification"
	"repfy/validation"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	listQuoteLimit  = 5
)

var (
	ErrForbidden         = errors.New("servicerequest: forbidden")
	ErrInvalidTransition = errors.New("servicerequest: invalid status transition")
	ErrNotAcceptingQuote = errors.New("servicerequest: request is not accepting quotes")
	ErrQuoteNotPending   = errors.New("servicerequest: quote is no longer pending")
	ErrQuoteExpired      = errors.New("servicerequest: quote has expired")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Notifier interface {
	Enqueue(ctx context.Context, tx pgx.Tx, n notification.Notification) error
}

type Service struct {
	pool        TxBeginner
	repo        Repository
	notifier    Notifier
	log         logging.Logger
	idGenerator func() string
	now         func() time.Time
}

func NewService(pool TxBeginner, repo Repository, notifier Notifier, log logging.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		pool:        pool,
		repo:        repo,
		notifier:    notifier,
		log:         log,
		idGenerator: uuid.NewString,
		now:         time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Request, error) {
	params.Title = strings.TrimSpace(params.Title)
	params.Description = strings.TrimSpace(params.Description)
	params.City = strings.TrimSpace(params.City)
	params.State = strings.TrimSpace(params.State)

	var (
		v         validation.Collector
		preferred *time.Time
	)
	v.UUID("categoryId", params.CategoryID)
	v.MinLen("title", params.Title, 10)
	v.MinLen("description", params.Description, 20)
	v.Required("city", params.City)
	v.Required("state", params.State)
	if params.PreferredDate != nil {
		t, err := time.Parse(time.RFC3339, *params.PreferredDate)
		if err != nil {
			v.Check(false, "preferredDate must be an RFC 3339 date-time")
		} else {
			preferred = &t
		}
	}
	if params.Budget != nil {
		v.Positive("budget", *params.Budget)
	}
	if err := v.Err(); err != nil {
		return Request{}, err
	}

	clientID, err := s.repo.ClientIDForUser(ctx, params.ClientUserID)
	if err != nil {
		return Request{}, err
	}

	created, err := s.repo.Create(ctx, Request{
		ID:            s.idGenerator(),
		ClientID:      clientID,
		CategoryID:    params.CategoryID,
		Title:         params.Title,
		Description:   params.Description,
		Address:       params.Address,
		City:          params.City,
		State:         params.State,
		ZipCode:       params.ZipCode,
		PreferredDate: preferred,
		Budget:        params.Budget,
		Status:        StatusPending,
	})
	if err != nil {
		return Request{}, err
	}
	created.Quotes = []Quote{}
	s.log.Info(ctx, "service request created", "request_id", created.ID, "client_id", clientID)
	return created, nil
}

// List scopes the listing by the caller: clients see their own requests,
// professionals the ones assigned to them or, with Open, every pending
// request. Admins see everything.
func (s *Service) List(ctx context.Context, filters ListFilters) (ListResult, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return ListResult{}, validation.New("status must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED")
	}

	scope := Scope{
		Status: filters.Status,
		Limit:  filters.PageSize,
		Offset: (filters.Page - 1) * filters.PageSize,
	}
	switch filters.Actor.Role {
	case auth.RoleClient:
		id, err := s.repo.ClientIDForUser(ctx, filters.Actor.UserID)
		if err != nil {
			return ListResult{}, err
		}
		scope.ClientID = id
	case auth.RoleProfessional:
		if filters.Open {
			scope.Status = StatusPending
			break
		}
		id, err := s.repo.ProfessionalIDForUser(ctx, filters.Actor.UserID)
		if err != nil {
			return ListResult{}, err
		}
		scope.ProfessionalID = id
	case auth.RoleAdmin:
	default:
		return ListResult{}, ErrForbidden
	}

	var (
		items []Request
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}

	if err := s.attachQuotes(ctx, items, listQuoteLimit); err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Requests:   items,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: (total + filters.PageSize - 1) / filters.PageSize,
	}, nil
}

// Get returns a request with all of its quotes.
func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	if !validation.IsUUID(id) {
		return Request{}, ErrNotFound
	}
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	items := []Request{req}
	if err := s.attachQuotes(ctx, items, 0); err != nil {
		return Request{}, err
	}
	return items[0], nil
}

func (s *Service) attachQuotes(ctx context.Context, items []Request, perRequest int) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i, r := range items {
		ids[i] = r.ID
	}
	quotes, err := s.repo.ListQuotes(ctx, ids, perRequest)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Quotes = quotes[items[i].ID]
		if items[i].Quotes == nil {
			items[i].Quotes = []Quote{}
		}
	}
	return nil
}

// UpdateStatus lets the owning client or the assigned professional cancel or
// complete a request. The other party is notified in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, params UpdateStatusParams) (Request, error) {
	if !params.Status.Valid() {
		return Request{}, validation.New("status must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED")
	}
	if !validation.IsUUID(params.RequestID) {
		return Request{}, ErrNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("servicerequest: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := s.repo.LockRequest(ctx, tx, params.RequestID)
	if err != nil {
		return Request{}, err
	}

	isClient := req.ClientUserID == params.Actor.UserID
	isProfessional := req.ProfessionalUserID != nil && *req.ProfessionalUserID == params.Actor.UserID
	if !isClient && !isProfessional {
		return Request{}, ErrForbidden
	}
	if !req.Status.CanTransition(params.Status) {
		return Request{}, ErrInvalidTransition
	}

	if err := s.repo.SetStatus(ctx, tx, req.ID, params.Status, s.now()); err != nil {
		return Request{}, err
	}
	if params.Status == StatusCancelled && req.Status == StatusPending {
		if err := s.repo.RejectQuotes(ctx, tx, req.ID, ""); err != nil {
			return Request{}, err
		}
	}

	recipient := req.ClientUserID
	if isClient {
		recipient = ""
		if req.ProfessionalUserID != nil {
			recipient = *req.ProfessionalUserID
		}
	}
	if recipient != "" && s.notifier != nil {
		n := notification.Notification{
			UserID:  recipient,
			Type:    notification.TypeRequestStatusChanged,
			Title:   "Service request updated",
			Message: fmt.Sprintf("%q is now %s", req.Title, params.Status),
			Data: map[string]any{
				"serviceRequestId": req.ID,
				"status":           string(params.Status),
			},
		}
		if err := s.notifier.Enqueue(ctx, tx, n); err != nil {
			return Request{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("servicerequest: commit tx: %w", err)
	}
	s.log.Info(ctx, "service request status changed",
		"request_id", req.ID, "from", string(req.Status), "to", string(params.Status))
	return s.repo.Get(ctx, req.ID)
}

// CreateQuote submits the caller's quote on a pending request and notifies
// the client.
func (s *Service) CreateQuote(ctx context.Context, params CreateQuoteParams) (Quote, error) {
	params.Message = strings.TrimSpace(params.Message)

	var (
		v          validation.Collector
		validUntil time.Time
	)
	v.Required("message", params.Message)
	v.Positive("price", params.Price)
	t, err := time.Parse(time.RFC3339, params.ValidUntil)
	if err != nil {
		v.Check(false, "validUntil must be an RFC 3339 date-time")
	} else {
		validUntil = t
		v.Check(t.After(s.now()), "validUntil must be in the future")
	}
	if err := v.Err(); err != nil {
		return Quote{}, err
	}
	if !validation.IsUUID(params.RequestID) {
		return Quote{}, ErrNotFound
	}

	professionalID, err := s.repo.ProfessionalIDForUser(ctx, params.ProfessionalUserID)
	if err != nil {
		return Quote{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("servicerequest: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := s.repo.LockRequest(ctx, tx, params.RequestID)
	if err != nil {
		return Quote{}, err
	}
	if req.Status != StatusPending {
		return Quote{}, ErrNotAcceptingQuote
	}

	created, err := s.repo.InsertQuote(ctx, tx, Quote{
		ID:                s.idGenerator(),
		ServiceRequestID:  req.ID,
		ProfessionalID:    professionalID,
		Message:           params.Message,
		Price:             params.Price,
		EstimatedDuration: params.EstimatedDuration,
		ValidUntil:        validUntil,
		Status:            QuotePending,
	})
	if err != nil {
		return Quote{}, err
	}

	if s.notifier != nil {
		n := notification.Notification{
			UserID:  req.ClientUserID,
			Type:    notification.TypeQuoteReceived,
			Title:   "New quote received",
			Message: fmt.Sprintf("You received a new quote for %q", req.Title),
			Data: map[string]any{
				"serviceRequestId": req.ID,
				"quoteId":          created.ID,
				"price":            created.Price,
			},
		}
		if err := s.notifier.Enqueue(ctx, tx, n); err != nil {
			return Quote{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Quote{}, fmt.Errorf("servicerequest: commit tx: %w", err)
	}
	s.log.Info(ctx, "quote created", "quote_id", created.ID, "request_id", req.ID, "professional_id", professionalID)
	return created, nil
}

// AcceptQuote accepts a quote on the caller's request: the quote becomes
// ACCEPTED, every other quote REJECTED, and the request is assigned to the
// quoting professional at the quoted price. Accepting the already accepted
// quote again returns the current state.
func (s *Service) AcceptQuote(ctx context.Context, params AcceptQuoteParams) (AcceptResult, error) {
	if !validation.IsUUID(params.RequestID) {
		return AcceptResult{}, ErrNotFound
	}
	if !validation.IsUUID(params.QuoteID) {
		return AcceptResult{}, ErrQuoteNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("servicerequest: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := s.repo.LockRequest(ctx, tx, params.RequestID)
	if err != nil {
		return AcceptResult{}, err
	}
	if req.ClientUserID != params.ClientUserID {
		return AcceptResult{}, ErrForbidden
	}

	quote, err := s.repo.LockQuote(ctx, tx, params.QuoteID)
	if err != nil {
		return AcceptResult{}, err
	}
	if quote.ServiceRequestID != req.ID {
		return AcceptResult{}, ErrQuoteNotFound
	}

	switch quote.Status {
	case QuoteAccepted:
		// Already accepted, nothing to write.
		if err := tx.Commit(ctx); err != nil {
			return AcceptResult{}, fmt.Errorf("servicerequest: commit tx: %w", err)
		}
		return AcceptResult{Quote: quote, Request: req}, nil
	case QuotePending:
	default:
		return AcceptResult{}, ErrQuoteNotPending
	}
	if req.Status != StatusPending {
		return AcceptResult{}, ErrNotAcceptingQuote
	}

	now := s.now()
	if !quote.ValidUntil.After(now) {
		return AcceptResult{}, ErrQuoteExpired
	}

	if err := s.repo.SetQuoteStatus(ctx, tx, quote.ID, QuoteAccepted); err != nil {
		return AcceptResult{}, err
	}
	if err := s.repo.RejectQuotes(ctx, tx, req.ID, quote.ID); err != nil {
		return AcceptResult{}, err
	}
	if err := s.repo.Assign(ctx, tx, req.ID, quote.ProfessionalID, quote.Price, now); err != nil {
		return AcceptResult{}, err
	}

	if s.notifier != nil {
		n := notification.Notification{
			UserID:  quote.ProfessionalUserID,
			Type:    notification.TypeQuoteAccepted,
			Title:   "Quote accepted",
			Message: fmt.Sprintf("Your quote for %q was accepted", req.Title),
			Data: map[string]any{
				"serviceRequestId": req.ID,
				"quoteId":          quote.ID,
			},
		}
		if err := s.notifier.Enqueue(ctx, tx, n); err != nil {
			return AcceptResult{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return AcceptResult{}, fmt.Errorf("servicerequest: commit tx: %w", err)
	}
	s.log.Info(ctx, "quote accepted", "quote_id", quote.ID, "request_id", req.ID, "professional_id", quote.ProfessionalID)

	quote.Status = QuoteAccepted
	updated, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		return AcceptResult{}, err
	}
	return AcceptResult{Quote: quote, Request: updated}, nil
}
