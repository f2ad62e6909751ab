// Package professional manages professional profiles and their public
// search. A profile carries offered services, weekly availability and a
// portfolio.
package professional

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"repfy/logging"
	"repfy/validation"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	pool TxBeginner
	repo Repository
	log  logging.Logger
}

func NewService(pool TxBeginner, repo Repository, log logging.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{pool: pool, repo: repo, log: log}
}

// UpdateProfile applies a partial update to the caller's professional
// profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, params UpdateParams) (Professional, error) {
	var v validation.Collector
	if params.PricingType != nil {
		v.Check(params.PricingType.Valid(), "pricingType must be one of PER_HOUR, PER_SERVICE, CUSTOM_QUOTE")
	}
	if params.HourlyRate != nil {
		v.Positive("hourlyRate", *params.HourlyRate)
	}
	if params.ServiceRadius != nil {
		v.Positive("serviceRadius", float64(*params.ServiceRadius))
	}
	if params.Latitude != nil {
		v.Check(*params.Latitude >= -90 && *params.Latitude <= 90, "latitude must be between -90 and 90")
	}
	if params.Longitude != nil {
		v.Check(*params.Longitude >= -180 && *params.Longitude <= 180, "longitude must be between -180 and 180")
	}
	if err := v.Err(); err != nil {
		return Professional{}, err
	}

	id, err := s.repo.IDForUser(ctx, userID)
	if err != nil {
		return Professional{}, err
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		return Professional{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) AddService(ctx context.Context, userID string, params AddServiceParams) (OfferedService, error) {
	params.Title = strings.TrimSpace(params.Title)
	params.Description = strings.TrimSpace(params.Description)

	var v validation.Collector
	v.UUID("categoryId", params.CategoryID)
	v.MinLen("title", params.Title, 5)
	v.MinLen("description", params.Description, 20)
	if params.Price != nil {
		v.Positive("price", *params.Price)
	}
	if err := v.Err(); err != nil {
		return OfferedService{}, err
	}

	id, err := s.repo.IDForUser(ctx, userID)
	if err != nil {
		return OfferedService{}, err
	}
	return s.repo.AddService(ctx, id, params)
}

// AddPortfolioItem appends an entry to the caller's portfolio. Order
// defaults to 0.
func (s *Service) AddPortfolioItem(ctx context.Context, userID string, params AddPortfolioItemParams) (PortfolioItem, error) {
	params.Title = strings.TrimSpace(params.Title)
	params.ImageURL = strings.TrimSpace(params.ImageURL)
	if params.Description != nil {
		d := strings.TrimSpace(*params.Description)
		params.Description = &d
	}

	var v validation.Collector
	v.MinLen("title", params.Title, 3)
	v.URL("imageUrl", params.ImageURL)
	if err := v.Err(); err != nil {
		return PortfolioItem{}, err
	}
	if params.Order == nil {
		zero := 0
		params.Order = &zero
	}

	id, err := s.repo.IDForUser(ctx, userID)
	if err != nil {
		return PortfolioItem{}, err
	}
	item, err := s.repo.AddPortfolioItem(ctx, id, params)
	if err != nil {
		return PortfolioItem{}, err
	}
	s.log.Debug(ctx, "portfolio item added", "professional_id", id, "item_id", item.ID)
	return item, nil
}

// SetAvailability replaces the caller's weekly slots and returns how many
// were stored.
func (s *Service) SetAvailability(ctx context.Context, userID string, slots []Slot) (int, error) {
	var v validation.Collector
	for i, slot := range slots {
		v.Check(slot.DayOfWeek >= 0 && slot.DayOfWeek <= 6, fmt.Sprintf("availability[%d].dayOfWeek must be between 0 and 6", i))
		startOK := clockPattern.MatchString(slot.StartTime)
		endOK := clockPattern.MatchString(slot.EndTime)
		v.Check(startOK, fmt.Sprintf("availability[%d].startTime must be HH:MM", i))
		v.Check(endOK, fmt.Sprintf("availability[%d].endTime must be HH:MM", i))
		if startOK && endOK {
			v.Check(slot.StartTime < slot.EndTime, fmt.Sprintf("availability[%d].startTime must be before endTime", i))
		}
	}
	if err := v.Err(); err != nil {
		return 0, err
	}

	id, err := s.repo.IDForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("professional: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := s.repo.ReplaceAvailability(ctx, tx, id, slots)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("professional: commit tx: %w", err)
	}
	s.log.Debug(ctx, "availability replaced", "professional_id", id, "slots", n)
	return n, nil
}

// Search lists verified professionals, best rated first, each with its
// active services.
func (s *Service) Search(ctx context.Context, filters SearchFilters) (SearchResult, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}
	if filters.MinRating < 0 {
		filters.MinRating = 0
	}
	if filters.CategoryID != "" && !validation.IsUUID(filters.CategoryID) {
		return SearchResult{}, validation.New("categoryId must be a valid uuid")
	}

	var (
		items []Professional
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.Search(gctx, filters)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountSearch(gctx, filters)
		return err
	})
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	ids := make([]string, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	services, err := s.repo.ListServices(ctx, ids)
	if err != nil {
		return SearchResult{}, err
	}
	for i := range items {
		items[i].Services = nonNil(services[items[i].ID])
	}

	return SearchResult{
		Professionals: items,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    (total + filters.PageSize - 1) / filters.PageSize,
	}, nil
}

// Get returns a professional with active services, availability and
// portfolio.
func (s *Service) Get(ctx context.Context, id string) (Professional, error) {
	if !validation.IsUUID(id) {
		return Professional{}, ErrNotFound
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Professional{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		services, err := s.repo.ListServices(gctx, []string{id})
		if err != nil {
			return err
		}
		p.Services = nonNil(services[id])
		return nil
	})
	g.Go(func() error {
		slots, err := s.repo.ListAvailability(gctx, id)
		if err != nil {
			return err
		}
		p.Availability = slots
		if p.Availability == nil {
			p.Availability = []Slot{}
		}
		return nil
	})
	g.Go(func() error {
		items, err := s.repo.ListPortfolio(gctx, id)
		if err != nil {
			return err
		}
		p.Portfolio = items
		if p.Portfolio == nil {
			p.Portfolio = []PortfolioItem{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Professional{}, err
	}
	return p, nil
}

func nonNil(s []OfferedService) []OfferedService {
	if s == nil {
		return []OfferedService{}
	}
	return s
}
