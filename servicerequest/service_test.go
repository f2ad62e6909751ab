package servicerequest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repfy/auth"
	"repfy/db/dbtest"
	"repfy/notification"
	"repfy/validation"
)

const (
	categoryID = "c0000000-0000-4000-8000-000000000001"
	aliceUser  = "a0000000-0000-4000-8000-000000000001"
	aliceCli   = "a0000000-0000-4000-8000-0000000000c1"
	bobUser    = "b0000000-0000-4000-8000-000000000001"
	bobPro     = "b0000000-0000-4000-8000-0000000000f1"
	carolUser  = "c1000000-0000-4000-8000-000000000001"
	carolPro   = "c1000000-0000-4000-8000-0000000000f1"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fakeRepository struct {
	mu       sync.Mutex
	clients  map[string]string
	pros     map[string]string
	requests map[string]Request
	quotes   map[string]Quote
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		clients:  map[string]string{aliceUser: aliceCli},
		pros:     map[string]string{bobUser: bobPro, carolUser: carolPro},
		requests: map[string]Request{},
		quotes:   map[string]Quote{},
	}
}

func (f *fakeRepository) userForPro(proID string) string {
	for user, id := range f.pros {
		if id == proID {
			return user
		}
	}
	return ""
}

func (f *fakeRepository) ClientIDForUser(_ context.Context, userID string) (string, error) {
	id, ok := f.clients[userID]
	if !ok {
		return "", ErrClientNotFound
	}
	return id, nil
}

func (f *fakeRepository) ProfessionalIDForUser(_ context.Context, userID string) (string, error) {
	id, ok := f.pros[userID]
	if !ok {
		return "", ErrProfessionalNotFound
	}
	return id, nil
}

func (f *fakeRepository) Create(_ context.Context, r Request) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.CategoryID != categoryID {
		return Request{}, ErrCategoryNotFound
	}
	r.ClientUserID = aliceUser
	r.CreatedAt = baseTime.Add(time.Duration(len(f.requests)) * time.Minute)
	f.requests[r.ID] = r
	return r, nil
}

func (f *fakeRepository) Get(_ context.Context, id string) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeRepository) matching(scope Scope) []Request {
	out := []Request{}
	for _, r := range f.requests {
		if scope.ClientID != "" && r.ClientID != scope.ClientID {
			continue
		}
		if scope.ProfessionalID != "" && (r.ProfessionalID == nil || *r.ProfessionalID != scope.ProfessionalID) {
			continue
		}
		if scope.Status != "" && r.Status != scope.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeRepository) List(_ context.Context, scope Scope) ([]Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.matching(scope)
	if scope.Offset >= len(all) {
		return []Request{}, nil
	}
	return all[scope.Offset:min(scope.Offset+scope.Limit, len(all))], nil
}

func (f *fakeRepository) Count(_ context.Context, scope Scope) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matching(scope)), nil
}

func (f *fakeRepository) ListQuotes(_ context.Context, ids []string, perRequest int) (map[string][]Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string][]Quote{}
	for _, id := range ids {
		for _, q := range f.quotes {
			if q.ServiceRequestID == id {
				out[id] = append(out[id], q)
			}
		}
		sort.Slice(out[id], func(i, j int) bool { return out[id][i].CreatedAt.After(out[id][j].CreatedAt) })
		if perRequest > 0 && len(out[id]) > perRequest {
			out[id] = out[id][:perRequest]
		}
	}
	return out, nil
}

func (f *fakeRepository) LockRequest(ctx context.Context, _ pgx.Tx, id string) (Request, error) {
	return f.Get(ctx, id)
}

func (f *fakeRepository) SetStatus(_ context.Context, _ pgx.Tx, id string, status Status, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	if status == StatusCompleted {
		r.CompletedAt = &at
	}
	f.requests[id] = r
	return nil
}

func (f *fakeRepository) InsertQuote(_ context.Context, _ pgx.Tx, q Quote) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.quotes {
		if existing.ServiceRequestID == q.ServiceRequestID && existing.ProfessionalID == q.ProfessionalID {
			return Quote{}, ErrDuplicateQuote
		}
	}
	q.ProfessionalUserID = f.userForPro(q.ProfessionalID)
	q.CreatedAt = baseTime.Add(time.Duration(len(f.quotes)) * time.Minute)
	f.quotes[q.ID] = q
	return q, nil
}

func (f *fakeRepository) LockQuote(_ context.Context, _ pgx.Tx, id string) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[id]
	if !ok {
		return Quote{}, ErrQuoteNotFound
	}
	return q, nil
}

func (f *fakeRepository) SetQuoteStatus(_ context.Context, _ pgx.Tx, id string, status QuoteStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.quotes[id]
	q.Status = status
	f.quotes[id] = q
	return nil
}

func (f *fakeRepository) RejectQuotes(_ context.Context, _ pgx.Tx, requestID, keepID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, q := range f.quotes {
		if q.ServiceRequestID == requestID && id != keepID {
			q.Status = QuoteRejected
			f.quotes[id] = q
		}
	}
	return nil
}

func (f *fakeRepository) Assign(_ context.Context, _ pgx.Tx, requestID, professionalID string, price float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.requests[requestID]
	proUser := f.userForPro(professionalID)
	r.ProfessionalID = &professionalID
	r.ProfessionalUserID = &proUser
	r.FinalPrice = &price
	r.Status = StatusInProgress
	r.StartedAt = &at
	f.requests[requestID] = r
	return nil
}

type recordingNotifier struct {
	sent []notification.Notification
}

func (r *recordingNotifier) Enqueue(_ context.Context, _ pgx.Tx, n notification.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type fixture struct {
	pool     *dbtest.Pool
	repo     *fakeRepository
	notifier *recordingNotifier
	svc      *Service
	seq      int
}

func newFixture() *fixture {
	f := &fixture{pool: &dbtest.Pool{}, repo: newFakeRepository(), notifier: &recordingNotifier{}}
	f.svc = NewService(f.pool, f.repo, f.notifier, nil).
		WithClock(func() time.Time { return baseTime }).
		WithIDGenerator(func() string {
			f.seq++
			return fmt.Sprintf("e0000000-0000-4000-8000-%012d", f.seq)
		})
	return f
}

func (f *fixture) createRequest(t *testing.T) Request {
	t.Helper()
	req, err := f.svc.Create(context.Background(), CreateParams{
		ClientUserID: aliceUser,
		CategoryID:   categoryID,
		Title:        "Fix the kitchen sink",
		Description:  "The kitchen sink drains slowly and leaks",
		City:         "Porto",
		State:        "PT",
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) quote(t *testing.T, requestID, proUser string, price float64) Quote {
	t.Helper()
	q, err := f.svc.CreateQuote(context.Background(), CreateQuoteParams{
		RequestID:          requestID,
		ProfessionalUserID: proUser,
		Message:            "I can do it tomorrow",
		Price:              price,
		ValidUntil:         baseTime.Add(72 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	return q
}

func TestCreateValidatesAndDefaultsToPending(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, aliceCli, req.ClientID)
	assert.NotNil(t, req.Quotes)

	bad := "tomorrow"
	budget := 0.0
	_, err := f.svc.Create(context.Background(), CreateParams{
		ClientUserID:  aliceUser,
		CategoryID:    "nope",
		Title:         "short",
		Description:   "too short",
		PreferredDate: &bad,
		Budget:        &budget,
	})
	reasons, ok := validation.Reasons(err)
	require.True(t, ok)
	assert.Len(t, reasons, 7)
}

func TestCreateRequiresClientProfile(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateParams{
		ClientUserID: bobUser,
		CategoryID:   categoryID,
		Title:        "Paint the living room",
		Description:  "Two walls, light grey, about 30 square meters",
		City:         "Porto",
		State:        "PT",
	})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestCreateQuoteNotifiesClient(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)

	q := f.quote(t, req.ID, bobUser, 120)
	assert.Equal(t, QuotePending, q.Status)
	assert.Equal(t, bobPro, q.ProfessionalID)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, aliceUser, f.notifier.sent[0].UserID)
	assert.Equal(t, notification.TypeQuoteReceived, f.notifier.sent[0].Type)
	assert.True(t, f.pool.Last().Committed)

	_, err := f.svc.CreateQuote(context.Background(), CreateQuoteParams{
		RequestID:          req.ID,
		ProfessionalUserID: bobUser,
		Message:            "Second try",
		Price:              100,
		ValidUntil:         baseTime.Add(time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, ErrDuplicateQuote)
	assert.False(t, f.pool.Last().Committed)
}

func TestCreateQuoteValidation(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)

	_, err := f.svc.CreateQuote(context.Background(), CreateQuoteParams{
		RequestID:          req.ID,
		ProfessionalUserID: bobUser,
		Price:              -5,
		ValidUntil:         baseTime.Add(-time.Hour).Format(time.RFC3339),
	})
	reasons, ok := validation.Reasons(err)
	require.True(t, ok)
	assert.Len(t, reasons, 3)

	_, err = f.svc.CreateQuote(context.Background(), CreateQuoteParams{
		RequestID:          req.ID,
		ProfessionalUserID: aliceUser,
		Message:            "hello",
		Price:              5,
		ValidUntil:         baseTime.Add(time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, ErrProfessionalNotFound)
}

func TestAcceptQuoteAssignsAndRejectsOthers(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	winner := f.quote(t, req.ID, bobUser, 150)
	loser := f.quote(t, req.ID, carolUser, 90)

	res, err := f.svc.AcceptQuote(context.Background(), AcceptQuoteParams{
		RequestID:    req.ID,
		QuoteID:      winner.ID,
		ClientUserID: aliceUser,
	})
	require.NoError(t, err)

	assert.Equal(t, QuoteAccepted, res.Quote.Status)
	assert.Equal(t, StatusInProgress, res.Request.Status)
	require.NotNil(t, res.Request.ProfessionalID)
	assert.Equal(t, bobPro, *res.Request.ProfessionalID)
	require.NotNil(t, res.Request.FinalPrice)
	assert.InDelta(t, 150, *res.Request.FinalPrice, 1e-9)
	require.NotNil(t, res.Request.StartedAt)
	assert.Equal(t, baseTime, *res.Request.StartedAt)
	assert.Equal(t, QuoteRejected, f.repo.quotes[loser.ID].Status)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, bobUser, last.UserID)
	assert.Equal(t, notification.TypeQuoteAccepted, last.Type)

	again, err := f.svc.AcceptQuote(context.Background(), AcceptQuoteParams{
		RequestID:    req.ID,
		QuoteID:      winner.ID,
		ClientUserID: aliceUser,
	})
	require.NoError(t, err)
	assert.Equal(t, QuoteAccepted, again.Quote.Status)
	assert.Equal(t, StatusInProgress, again.Request.Status)

	_, err = f.svc.AcceptQuote(context.Background(), AcceptQuoteParams{
		RequestID:    req.ID,
		QuoteID:      loser.ID,
		ClientUserID: aliceUser,
	})
	assert.ErrorIs(t, err, ErrQuoteNotPending)
}

func TestAcceptQuoteGuards(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	q := f.quote(t, req.ID, bobUser, 150)

	_, err := f.svc.AcceptQuote(context.Background(), AcceptQuoteParams{RequestID: req.ID, QuoteID: q.ID, ClientUserID: bobUser})
	assert.ErrorIs(t, err, ErrForbidden)

	other := f.createRequest(t)
	_, err = f.svc.AcceptQuote(context.Background(), AcceptQuoteParams{RequestID: other.ID, QuoteID: q.ID, ClientUserID: aliceUser})
	assert.ErrorIs(t, err, ErrQuoteNotFound)

	f.svc.WithClock(func() time.Time { return baseTime.Add(96 * time.Hour) })
	_, err = f.svc.AcceptQuote(context.Background(), AcceptQuoteParams{RequestID: req.ID, QuoteID: q.ID, ClientUserID: aliceUser})
	assert.ErrorIs(t, err, ErrQuoteExpired)
	assert.Equal(t, QuotePending, f.repo.quotes[q.ID].Status)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	q := f.quote(t, req.ID, bobUser, 150)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusParams{
		RequestID: req.ID,
		Actor:     Actor{UserID: aliceUser, Role: auth.RoleClient},
		Status:    StatusCompleted,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.AcceptQuote(context.Background(), AcceptQuoteParams{RequestID: req.ID, QuoteID: q.ID, ClientUserID: aliceUser})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), UpdateStatusParams{
		RequestID: req.ID,
		Actor:     Actor{UserID: carolUser, Role: auth.RoleProfessional},
		Status:    StatusCompleted,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	done, err := f.svc.UpdateStatus(context.Background(), UpdateStatusParams{
		RequestID: req.ID,
		Actor:     Actor{UserID: bobUser, Role: auth.RoleProfessional},
		Status:    StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, aliceUser, last.UserID)
	assert.Equal(t, notification.TypeRequestStatusChanged, last.Type)

	_, err = f.svc.UpdateStatus(context.Background(), UpdateStatusParams{
		RequestID: req.ID,
		Actor:     Actor{UserID: aliceUser, Role: auth.RoleClient},
		Status:    StatusCancelled,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelPendingRejectsQuotes(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	q := f.quote(t, req.ID, bobUser, 150)
	sentBefore := len(f.notifier.sent)

	cancelled, err := f.svc.UpdateStatus(context.Background(), UpdateStatusParams{
		RequestID: req.ID,
		Actor:     Actor{UserID: aliceUser, Role: auth.RoleClient},
		Status:    StatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, QuoteRejected, f.repo.quotes[q.ID].Status)
	assert.Len(t, f.notifier.sent, sentBefore)

	_, err = f.svc.CreateQuote(context.Background(), CreateQuoteParams{
		RequestID:          req.ID,
		ProfessionalUserID: carolUser,
		Message:            "Late quote",
		Price:              10,
		ValidUntil:         baseTime.Add(time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, ErrNotAcceptingQuote)
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture()
	first := f.createRequest(t)
	second := f.createRequest(t)
	q := f.quote(t, first.ID, bobUser, 150)
	_, err := f.svc.AcceptQuote(context.Background(), AcceptQuoteParams{RequestID: first.ID, QuoteID: q.ID, ClientUserID: aliceUser})
	require.NoError(t, err)

	res, err := f.svc.List(context.Background(), ListFilters{Actor: Actor{UserID: aliceUser, Role: auth.RoleClient}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, second.ID, res.Requests[0].ID)

	res, err = f.svc.List(context.Background(), ListFilters{Actor: Actor{UserID: bobUser, Role: auth.RoleProfessional}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, first.ID, res.Requests[0].ID)
	assert.Len(t, res.Requests[0].Quotes, 1)

	res, err = f.svc.List(context.Background(), ListFilters{Actor: Actor{UserID: carolUser, Role: auth.RoleProfessional}, Open: true})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, second.ID, res.Requests[0].ID)

	res, err = f.svc.List(context.Background(), ListFilters{Actor: Actor{UserID: "admin", Role: auth.RoleAdmin}, Status: StatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = f.svc.List(context.Background(), ListFilters{Actor: Actor{UserID: aliceUser, Role: auth.RoleClient}, Status: "DONE"})
	_, ok := validation.Reasons(err)
	assert.True(t, ok)
}

func TestGetIncludesAllQuotes(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	f.quote(t, req.ID, bobUser, 150)
	f.quote(t, req.ID, carolUser, 120)

	got, err := f.svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, got.Quotes, 2)

	_, err = f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
