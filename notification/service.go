// Package notification stores in-app notifications and serves the
// recipient's inbox.
package notification

import (
	"context"

	"golang.org/x/sync/errgroup"

	"repfy/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

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

	var (
		items []Notification
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, filters)
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
		Notifications: items,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    (total + filters.PageSize - 1) / filters.PageSize,
	}, nil
}

// MarkRead marks one of userID's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id, userID string) (Notification, error) {
	if !validation.IsUUID(id) {
		return Notification{}, ErrNotFound
	}
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
