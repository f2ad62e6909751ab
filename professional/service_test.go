package professional

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repfy/db/dbtest"
	"repfy/validation"
)

const (
	proAID   = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	proBID   = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
	proCID   = "cccccccc-cccc-4ccc-8ccc-cccccccccccc"
	plumbing = "dddddddd-dddd-4ddd-8ddd-dddddddddddd"
)

type fakeRepository struct {
	pros         map[string]Professional
	byUser       map[string]string
	services     map[string][]OfferedService
	availability map[string][]Slot
	portfolio    map[string][]PortfolioItem
}

func newFakeRepository() *fakeRepository {
	city := "Lisbon"
	return &fakeRepository{
		pros: map[string]Professional{
			proAID: {ID: proAID, UserID: "user-a", Verified: true, Rating: 4.5, ReviewCount: 10, City: &city},
			proBID: {ID: proBID, UserID: "user-b", Verified: true, Rating: 4.5, ReviewCount: 20},
			proCID: {ID: proCID, UserID: "user-c", Verified: false, Rating: 5},
		},
		byUser:       map[string]string{"user-a": proAID, "user-b": proBID, "user-c": proCID},
		services:     map[string][]OfferedService{},
		availability: map[string][]Slot{},
		portfolio:    map[string][]PortfolioItem{},
	}
}

func (f *fakeRepository) IDForUser(_ context.Context, userID string) (string, error) {
	id, ok := f.byUser[userID]
	if !ok {
		return "", ErrProfileNotFound
	}
	return id, nil
}

func (f *fakeRepository) Get(_ context.Context, id string) (Professional, error) {
	p, ok := f.pros[id]
	if !ok {
		return Professional{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepository) Update(_ context.Context, id string, params UpdateParams) error {
	p := f.pros[id]
	if params.Bio != nil {
		p.Bio = params.Bio
	}
	if params.PricingType != nil {
		p.PricingType = *params.PricingType
	}
	if params.HourlyRate != nil {
		p.HourlyRate = params.HourlyRate
	}
	f.pros[id] = p
	return nil
}

func (f *fakeRepository) AddService(_ context.Context, professionalID string, params AddServiceParams) (OfferedService, error) {
	if params.CategoryID != plumbing {
		return OfferedService{}, ErrCategoryNotFound
	}
	s := OfferedService{
		ID:             "svc-1",
		ProfessionalID: professionalID,
		CategoryID:     params.CategoryID,
		Title:          params.Title,
		Description:    params.Description,
		Price:          params.Price,
		Active:         true,
	}
	f.services[professionalID] = append(f.services[professionalID], s)
	return s, nil
}

func (f *fakeRepository) ListServices(_ context.Context, ids []string) (map[string][]OfferedService, error) {
	out := map[string][]OfferedService{}
	for _, id := range ids {
		if s, ok := f.services[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (f *fakeRepository) ListAvailability(_ context.Context, id string) ([]Slot, error) {
	return f.availability[id], nil
}

func (f *fakeRepository) ReplaceAvailability(_ context.Context, _ pgx.Tx, id string, slots []Slot) (int, error) {
	f.availability[id] = append([]Slot(nil), slots...)
	return len(slots), nil
}

func (f *fakeRepository) AddPortfolioItem(_ context.Context, professionalID string, params AddPortfolioItemParams) (PortfolioItem, error) {
	item := PortfolioItem{
		ID:             fmt.Sprintf("item-%d", len(f.portfolio[professionalID])+1),
		ProfessionalID: professionalID,
		Title:          params.Title,
		Description:    params.Description,
		ImageURL:       params.ImageURL,
		Order:          *params.Order,
	}
	f.portfolio[professionalID] = append(f.portfolio[professionalID], item)
	return item, nil
}

func (f *fakeRepository) ListPortfolio(_ context.Context, professionalID string) ([]PortfolioItem, error) {
	items := append([]PortfolioItem(nil), f.portfolio[professionalID]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items, nil
}

func (f *fakeRepository) matching(filters SearchFilters) []Professional {
	out := []Professional{}
	for _, p := range f.pros {
		if !p.Verified || p.Rating < filters.MinRating {
			continue
		}
		if filters.City != "" && (p.City == nil || *p.City != filters.City) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ReviewCount > out[j].ReviewCount
	})
	return out
}

func (f *fakeRepository) Search(_ context.Context, filters SearchFilters) ([]Professional, error) {
	return f.matching(filters), nil
}

func (f *fakeRepository) CountSearch(_ context.Context, filters SearchFilters) (int, error) {
	return len(f.matching(filters)), nil
}

func newTestService() (*Service, *fakeRepository, *dbtest.Pool) {
	repo := newFakeRepository()
	pool := &dbtest.Pool{}
	return NewService(pool, repo, nil), repo, pool
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService()
	bio := "Twenty years of plumbing"
	pricing := PricingPerHour
	rate := 35.0

	p, err := svc.UpdateProfile(context.Background(), "user-a", UpdateParams{Bio: &bio, PricingType: &pricing, HourlyRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, bio, *p.Bio)
	assert.Equal(t, PricingPerHour, p.PricingType)

	bad := PricingType("FREE")
	negative := -1.0
	_, err = svc.UpdateProfile(context.Background(), "user-a", UpdateParams{PricingType: &bad, HourlyRate: &negative})
	reasons, ok := validation.Reasons(err)
	require.True(t, ok)
	assert.Len(t, reasons, 2)

	_, err = svc.UpdateProfile(context.Background(), "client-user", UpdateParams{Bio: &bio})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestAddService(t *testing.T) {
	svc, repo, _ := newTestService()

	s, err := svc.AddService(context.Background(), "user-a", AddServiceParams{
		CategoryID:  plumbing,
		Title:       "  Leak repair ",
		Description: "Fixing leaking pipes and taps of all kinds",
	})
	require.NoError(t, err)
	assert.Equal(t, "Leak repair", s.Title)
	assert.Len(t, repo.services[proAID], 1)

	_, err = svc.AddService(context.Background(), "user-a", AddServiceParams{CategoryID: "x", Title: "abc", Description: "short"})
	reasons, ok := validation.Reasons(err)
	require.True(t, ok)
	assert.Len(t, reasons, 3)
}

func TestAddPortfolioItem(t *testing.T) {
	svc, repo, _ := newTestService()
	desc := " Full bathroom refit "
	order := 2

	item, err := svc.AddPortfolioItem(context.Background(), "user-a", AddPortfolioItemParams{
		Title:       " Bathroom ",
		Description: &desc,
		ImageURL:    "https://img.example.com/bath.jpg",
		Order:       &order,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bathroom", item.Title)
	assert.Equal(t, "Full bathroom refit", *item.Description)
	assert.Equal(t, 2, item.Order)
	assert.Len(t, repo.portfolio[proAID], 1)

	item, err = svc.AddPortfolioItem(context.Background(), "user-a", AddPortfolioItemParams{
		Title:    "Kitchen",
		ImageURL: "https://img.example.com/kitchen.jpg",
	})
	require.NoError(t, err)
	assert.Zero(t, item.Order)
	assert.Nil(t, item.Description)
}

func TestAddPortfolioItemRejectsInvalidInput(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.AddPortfolioItem(context.Background(), "user-a", AddPortfolioItemParams{Title: " ab ", ImageURL: "not a url"})
	reasons, ok := validation.Reasons(err)
	require.True(t, ok)
	assert.Len(t, reasons, 2)
	assert.Empty(t, repo.portfolio[proAID])

	_, err = svc.AddPortfolioItem(context.Background(), "client-user", AddPortfolioItemParams{
		Title:    "Kitchen",
		ImageURL: "https://img.example.com/kitchen.jpg",
	})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSetAvailabilityValidatesAndCommits(t *testing.T) {
	svc, repo, pool := newTestService()

	n, err := svc.SetAvailability(context.Background(), "user-a", []Slot{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
		{DayOfWeek: 6, StartTime: "10:00", EndTime: "12:30"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, repo.availability[proAID], 2)
	require.NotNil(t, pool.Last())
	assert.True(t, pool.Last().Committed)

	_, err = svc.SetAvailability(context.Background(), "user-a", []Slot{
		{DayOfWeek: 7, StartTime: "9:00", EndTime: "17:00"},
		{DayOfWeek: 2, StartTime: "18:00", EndTime: "08:00"},
	})
	reasons, ok := validation.Reasons(err)
	require.True(t, ok)
	assert.Len(t, reasons, 3)
	assert.Len(t, pool.Txs, 1)
}

func TestSetAvailabilityEmptyClearsSlots(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.availability[proAID] = []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}}

	n, err := svc.SetAvailability(context.Background(), "user-a", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, repo.availability[proAID])
}

func TestSearchOrdersAndFilters(t *testing.T) {
	svc, _, _ := newTestService()

	res, err := svc.Search(context.Background(), SearchFilters{})
	require.NoError(t, err)
	require.Len(t, res.Professionals, 2)
	assert.Equal(t, proBID, res.Professionals[0].ID)
	assert.Equal(t, proAID, res.Professionals[1].ID)
	assert.Equal(t, 10, res.PageSize)
	assert.NotNil(t, res.Professionals[0].Services)

	res, err = svc.Search(context.Background(), SearchFilters{City: "Lisbon"})
	require.NoError(t, err)
	require.Len(t, res.Professionals, 1)
	assert.Equal(t, proAID, res.Professionals[0].ID)

	_, err = svc.Search(context.Background(), SearchFilters{CategoryID: "plumbing"})
	_, ok := validation.Reasons(err)
	assert.True(t, ok)
}

func TestGetIncludesServicesAndAvailability(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.availability[proAID] = []Slot{{DayOfWeek: 3, StartTime: "08:00", EndTime: "12:00"}}

	p, err := svc.Get(context.Background(), proAID)
	require.NoError(t, err)
	assert.Empty(t, p.Services)
	assert.NotNil(t, p.Services)
	assert.Len(t, p.Availability, 1)
	assert.NotNil(t, p.Portfolio)
	assert.Empty(t, p.Portfolio)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrdersPortfolio(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.portfolio[proAID] = []PortfolioItem{
		{ID: "late", ProfessionalID: proAID, Title: "Deck", Order: 5},
		{ID: "first", ProfessionalID: proAID, Title: "Roof", Order: 0},
		{ID: "middle", ProfessionalID: proAID, Title: "Porch", Order: 1},
	}

	p, err := svc.Get(context.Background(), proAID)
	require.NoError(t, err)
	require.Len(t, p.Portfolio, 3)
	assert.Equal(t, "first", p.Portfolio[0].ID)
	assert.Equal(t, "middle", p.Portfolio[1].ID)
	assert.Equal(t, "late", p.Portfolio[2].ID)
}
