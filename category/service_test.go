package category

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repfy/validation"
)

type fakeRepository struct {
	byID   map[string]Category
	nextID int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: make(map[string]Category), nextID: 1}
}

func (f *fakeRepository) List(_ context.Context, includeInactive bool) ([]Category, error) {
	out := []Category{}
	for _, c := range f.byID {
		if c.Active || includeInactive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepository) Get(_ context.Context, id string) (Category, error) {
	c, ok := f.byID[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepository) Create(_ context.Context, c Category) (Category, error) {
	for _, existing := range f.byID {
		if existing.Slug == c.Slug {
			return Category{}, ErrDuplicateSlug
		}
	}
	c.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", f.nextID)
	f.nextID++
	c.Active = true
	c.CreatedAt = time.Now()
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeRepository) Update(_ context.Context, id string, slug *string, params UpdateParams) (Category, error) {
	c, ok := f.byID[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	if slug != nil {
		for otherID, existing := range f.byID {
			if otherID != id && existing.Slug == *slug {
				return Category{}, ErrDuplicateSlug
			}
		}
		c.Slug = *slug
	}
	if params.Name != nil {
		c.Name = *params.Name
	}
	if params.Order != nil {
		c.Order = *params.Order
	}
	if params.Active != nil {
		c.Active = *params.Active
	}
	f.byID[id] = c
	return c, nil
}

func (f *fakeRepository) Deactivate(_ context.Context, id string) (Category, error) {
	c, ok := f.byID[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	c.Active = false
	f.byID[id] = c
	return c, nil
}

func intPtr(i int) *int { return &i }

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Limpeza Pós-Obra", "limpeza-pos-obra"},
		{"  Elétrica  &  Hidráulica ", "eletrica-hidraulica"},
		{"Jardinagem", "jardinagem"},
		{"A -- B", "a-b"},
		{"!!!", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), tc.in)
	}
}

func TestService_CreateAndTree(t *testing.T) {
	svc := NewService(newFakeRepository())
	ctx := context.Background()

	home, err := svc.Create(ctx, CreateParams{Name: "Reformas", Order: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, "reformas", home.Slug)

	clean, err := svc.Create(ctx, CreateParams{Name: "Limpeza", Order: intPtr(1)})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Name: "Pintura", ParentID: &home.ID, Order: intPtr(5)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{Name: "Elétrica", ParentID: &home.ID, Order: intPtr(1)})
	require.NoError(t, err)

	tree, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, clean.ID, tree[0].ID)
	assert.Empty(t, tree[0].Subcategories)
	require.Len(t, tree[1].Subcategories, 2)
	assert.Equal(t, "eletrica", tree[1].Subcategories[0].Slug)

	got, err := svc.Get(ctx, tree[1].Subcategories[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got.Parent)
	assert.Equal(t, home.ID, got.Parent.ID)
}

func TestService_CreateRejects(t *testing.T) {
	svc := NewService(newFakeRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Name: "Reformas"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Name: "reformas"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	bad := "nope"
	_, err = svc.Create(ctx, CreateParams{Name: "ab", ParentID: &bad, Order: intPtr(-1)})
	reasons, ok := validation.Reasons(err)
	require.True(t, ok)
	assert.Len(t, reasons, 3)

	missing := "00000000-0000-4000-8000-999999999999"
	_, err = svc.Create(ctx, CreateParams{Name: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestService_UpdateRegeneratesSlug(t *testing.T) {
	svc := NewService(newFakeRepository())
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateParams{Name: "Jardim"})
	require.NoError(t, err)

	name := "Jardinagem e Paisagismo"
	updated, err := svc.Update(ctx, c.ID, UpdateParams{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "jardinagem-e-paisagismo", updated.Slug)

	order := 3
	updated, err = svc.Update(ctx, c.ID, UpdateParams{Order: &order})
	require.NoError(t, err)
	assert.Equal(t, "jardinagem-e-paisagismo", updated.Slug)
	assert.Equal(t, 3, updated.Order)

	_, err = svc.Update(ctx, "bad-id", UpdateParams{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DeleteIsSoft(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateParams{Name: "Mudanças"})
	require.NoError(t, err)
	deleted, err := svc.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, deleted.Active)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
	assert.Contains(t, repo.byID, c.ID)
}
