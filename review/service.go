// Package review records client reviews of completed service requests and
// keeps the reviewed professional's rating in step with them.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"repfy/logging"
	"repfy/notification"
	"repfy/validation"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	statusCompleted = "COMPLETED"
)

var (
	ErrIncomplete = errors.New("review: service request not completed")
	ErrNotAuthor  = errors.New("review: only the requesting client can review")
	ErrBadTarget  = errors.New("review: target is not the assigned professional")
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

func (s *Service) Create(ctx context.Context, params CreateParams) (Review, error) {
	var v validation.Collector
	v.UUID("serviceRequestId", params.ServiceRequestID)
	v.UUID("targetId", params.TargetID)
	v.Check(params.Rating >= 1 && params.Rating <= 5, "rating must be between 1 and 5")
	if params.Comment != nil {
		trimmed := strings.TrimSpace(*params.Comment)
		params.Comment = &trimmed
		v.MinLen("comment", trimmed, 10)
	}
	if err := v.Err(); err != nil {
		return Review{}, err
	}
	if params.AuthorID == "" {
		return Review{}, fmt.Errorf("review: missing author id")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Review{}, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := s.repo.LockRequest(ctx, tx, params.ServiceRequestID)
	if err != nil {
		return Review{}, err
	}
	if st.Status != statusCompleted {
		return Review{}, ErrIncomplete
	}
	if st.Reviewed {
		return Review{}, ErrAlreadyReviewed
	}
	if st.ClientUserID != params.AuthorID {
		return Review{}, ErrNotAuthor
	}
	if st.ProfessionalUserID == nil || *st.ProfessionalUserID != params.TargetID {
		return Review{}, ErrBadTarget
	}

	created, err := s.repo.Insert(ctx, tx, Review{
		ID:               s.idGenerator(),
		ServiceRequestID: params.ServiceRequestID,
		AuthorID:         params.AuthorID,
		TargetID:         params.TargetID,
		Rating:           params.Rating,
		Comment:          params.Comment,
	})
	if err != nil {
		return Review{}, err
	}
	if err := s.repo.RecomputeRating(ctx, tx, params.TargetID); err != nil {
		return Review{}, err
	}

	if s.notifier != nil {
		n := notification.Notification{
			UserID:  params.TargetID,
			Type:    notification.TypeReviewReceived,
			Title:   "New review",
			Message: fmt.Sprintf("You received a %d-star review", params.Rating),
			Data: map[string]any{
				"reviewId":         created.ID,
				"serviceRequestId": created.ServiceRequestID,
				"rating":           created.Rating,
			},
		}
		if err := s.notifier.Enqueue(ctx, tx, n); err != nil {
			return Review{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Review{}, fmt.Errorf("review: commit tx: %w", err)
	}
	s.log.Info(ctx, "review created", "review_id", created.ID, "target_id", created.TargetID, "rating", created.Rating)
	return created, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, page, pageSize int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if !validation.IsUUID(userID) {
		return ListResult{Reviews: []Review{}, Page: page, PageSize: pageSize}, nil
	}

	var (
		items []Review
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListByTarget(gctx, userID, pageSize, (page-1)*pageSize)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByTarget(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Reviews:    items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}
