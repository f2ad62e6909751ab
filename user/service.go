// Package user serves account profiles: the caller's own profile, public
// profiles and the admin listing.
package user

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"repfy/auth"
	"repfy/validation"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetMe(ctx context.Context, userID string) (Profile, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateMe applies a partial update to the caller's profile and returns the
// refreshed profile.
func (s *Service) UpdateMe(ctx context.Context, userID string, params UpdateParams) (Profile, error) {
	var v validation.Collector
	if params.Name != nil {
		trimmed := strings.TrimSpace(*params.Name)
		params.Name = &trimmed
		v.MinLen("name", trimmed, 2)
	}
	if params.Avatar != nil {
		v.URL("avatar", *params.Avatar)
	}
	if err := v.Err(); err != nil {
		return Profile{}, err
	}

	if err := s.repo.Update(ctx, userID, params); err != nil {
		return Profile{}, err
	}
	return s.repo.Get(ctx, userID)
}

// GetPublic returns the public view of any user.
func (s *Service) GetPublic(ctx context.Context, id string) (PublicProfile, error) {
	if !validation.IsUUID(id) {
		return PublicProfile{}, ErrNotFound
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return PublicProfile{}, err
	}
	return PublicProfile{
		ID:           p.ID,
		Name:         p.Name,
		Avatar:       p.Avatar,
		Role:         p.Role,
		CreatedAt:    p.CreatedAt,
		Professional: p.Professional,
	}, nil
}

// List pages through users; rows and total are fetched concurrently.
func (s *Service) List(ctx context.Context, filters ListFilters) (ListResult, error) {
	var v validation.Collector
	if filters.Role != "" {
		v.Check(filters.Role.Valid(), "role must be CLIENT, PROFESSIONAL or ADMIN")
	}
	if filters.Status != "" {
		v.Check(filters.Status.Valid(), "status is not a known user status")
	}
	if err := v.Err(); err != nil {
		return ListResult{}, err
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}

	var (
		users []Summary
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.List(gctx, filters)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filters)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Users:      users,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: (total + filters.PageSize - 1) / filters.PageSize,
	}, nil
}

// RoleFilter parses a query value into a role filter; empty stays empty.
func RoleFilter(s string) auth.Role {
	return auth.Role(strings.ToUpper(strings.TrimSpace(s)))
}
