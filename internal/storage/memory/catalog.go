package memory

import (
	"context"
	"sort"
	"strings"

	catalog "provenance/internal/catalog/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
)

type catalogStore struct{ t *txn }

func (c catalogStore) CreateCategory(_ context.Context, category *catalog.Category) error {
	m := c.t.s.categories
	for _, existing := range m {
		if strings.EqualFold(existing.Name, category.Name) {
			return storage.Unique("category name")
		}
	}
	if err := c.t.write(restore(m, category.ID)); err != nil {
		return err
	}
	m[category.ID] = *category
	return nil
}

func (c catalogStore) FindCategory(_ context.Context, categoryID id.CategoryID) (*catalog.Category, error) {
	cat, ok := c.t.s.categories[categoryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &cat, nil
}

func (c catalogStore) ListCategories(_ context.Context) ([]*catalog.Category, error) {
	out := make([]*catalog.Category, 0, len(c.t.s.categories))
	for _, cat := range c.t.s.categories {
		cat := cat
		out = append(out, &cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c catalogStore) CreateBrand(_ context.Context, brand *catalog.Brand) error {
	if err := c.checkBrandName(brand); err != nil {
		return err
	}
	m := c.t.s.brands
	if err := c.t.write(restore(m, brand.ID)); err != nil {
		return err
	}
	m[brand.ID] = *brand
	return nil
}

func (c catalogStore) UpdateBrand(_ context.Context, brand *catalog.Brand) error {
	m := c.t.s.brands
	if _, ok := m[brand.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if err := c.checkBrandName(brand); err != nil {
		return err
	}
	if err := c.t.write(restore(m, brand.ID)); err != nil {
		return err
	}
	m[brand.ID] = *brand
	return nil
}

func (c catalogStore) checkBrandName(brand *catalog.Brand) error {
	for _, existing := range c.t.s.brands {
		if existing.ID != brand.ID && strings.EqualFold(existing.Name, brand.Name) {
			return storage.Unique("brand name")
		}
	}
	return nil
}

func (c catalogStore) DeleteBrand(_ context.Context, brandID id.BrandID) error {
	m := c.t.s.brands
	if _, ok := m[brandID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, a := range c.t.s.assets {
		if a.BrandID == brandID {
			return sentinel.ErrInvalidState
		}
	}
	if err := c.t.write(restore(m, brandID)); err != nil {
		return err
	}
	delete(m, brandID)
	return nil
}

func (c catalogStore) FindBrand(_ context.Context, brandID id.BrandID) (*catalog.Brand, error) {
	b, ok := c.t.s.brands[brandID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

func (c catalogStore) ListBrands(_ context.Context) ([]*catalog.Brand, error) {
	out := make([]*catalog.Brand, 0, len(c.t.s.brands))
	for _, b := range c.t.s.brands {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
