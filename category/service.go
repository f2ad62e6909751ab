// Package category manages the two-level service category tree.
package category

import (
	"context"
	"errors"
	"sort"
	"strings"

	"repfy/validation"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns top-level categories with their subcategories nested, both
// levels ordered by sort order.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	all, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	return buildTree(all), nil
}

// Get returns a category with its active subcategories and its parent.
func (s *Service) Get(ctx context.Context, id string) (Category, error) {
	if !validation.IsUUID(id) {
		return Category{}, ErrNotFound
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}

	all, err := s.repo.List(ctx, false)
	if err != nil {
		return Category{}, err
	}
	c.Subcategories = []Category{}
	for _, child := range all {
		if child.ParentID != nil && *child.ParentID == c.ID {
			c.Subcategories = append(c.Subcategories, child)
		}
	}
	if c.ParentID != nil {
		parent, err := s.repo.Get(ctx, *c.ParentID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Category{}, err
		}
		if err == nil {
			c.Parent = &parent
		}
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Category, error) {
	name := strings.TrimSpace(params.Name)
	slug := Slugify(name)

	var v validation.Collector
	v.MinLen("name", name, 3)
	if name != "" {
		v.Check(slug != "", "name must contain letters or digits")
	}
	if params.ParentID != nil {
		v.UUID("parentId", *params.ParentID)
	}
	if params.Order != nil {
		v.Check(*params.Order >= 0, "order must not be negative")
	}
	if err := v.Err(); err != nil {
		return Category{}, err
	}

	c := Category{
		Name:        name,
		Slug:        slug,
		Description: params.Description,
		Icon:        params.Icon,
		ParentID:    params.ParentID,
	}
	if params.Order != nil {
		c.Order = *params.Order
	}
	if c.ParentID != nil {
		parent, err := s.repo.Get(ctx, *c.ParentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Category{}, ErrParentNotFound
			}
			return Category{}, err
		}
		if parent.ParentID != nil {
			return Category{}, validation.New("parentId must reference a top-level category")
		}
	}
	return s.repo.Create(ctx, c)
}

// Update applies a partial update. Renaming regenerates the slug.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Category, error) {
	if !validation.IsUUID(id) {
		return Category{}, ErrNotFound
	}

	var (
		v    validation.Collector
		slug *string
	)
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		params.Name = &name
		v.MinLen("name", name, 3)
		derived := Slugify(name)
		v.Check(derived != "", "name must contain letters or digits")
		slug = &derived
	}
	if params.Order != nil {
		v.Check(*params.Order >= 0, "order must not be negative")
	}
	if err := v.Err(); err != nil {
		return Category{}, err
	}
	return s.repo.Update(ctx, id, slug, params)
}

// Delete deactivates the category; rows are never removed.
func (s *Service) Delete(ctx context.Context, id string) (Category, error) {
	if !validation.IsUUID(id) {
		return Category{}, ErrNotFound
	}
	return s.repo.Deactivate(ctx, id)
}

func buildTree(all []Category) []Category {
	children := make(map[string][]Category)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	top := make([]Category, 0, len(all))
	for _, c := range all {
		if c.ParentID != nil {
			continue
		}
		subs := children[c.ID]
		sort.SliceStable(subs, func(i, j int) bool { return subs[i].Order < subs[j].Order })
		if subs == nil {
			subs = []Category{}
		}
		c.Subcategories = subs
		top = append(top, c)
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Order < top[j].Order })
	return top
}
