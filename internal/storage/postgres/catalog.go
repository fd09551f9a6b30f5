package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	catalog "provenance/internal/catalog/models"
	id "provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
)

type catalogStore struct{ s *Store }

func (r catalogStore) CreateCategory(ctx context.Context, c *catalog.Category) error {
	_, err := r.s.execer(ctx).ExecContext(ctx,
		`INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3)`,
		c.ID.String(), c.Name, c.CreatedAt)
	return translate(err, "create category")
}

func (r catalogStore) FindCategory(ctx context.Context, categoryID id.CategoryID) (*catalog.Category, error) {
	var (
		c     catalog.Category
		rawID uuid.UUID
	)
	err := r.s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE id = $1`, categoryID.String()).
		Scan(&rawID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, translate(err, "find category")
	}
	c.ID = id.CategoryID(rawID)
	return &c, nil
}

func (r catalogStore) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	rows, err := r.s.execer(ctx).QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	defer rows.Close()

	out := make([]*catalog.Category, 0)
	for rows.Next() {
		var (
			c     catalog.Category
			rawID uuid.UUID
		)
		if err := rows.Scan(&rawID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = id.CategoryID(rawID)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r catalogStore) CreateBrand(ctx context.Context, b *catalog.Brand) error {
	_, err := r.s.execer(ctx).ExecContext(ctx,
		`INSERT INTO brands (id, name, created_at) VALUES ($1, $2, $3)`,
		b.ID.String(), b.Name, b.CreatedAt)
	return translate(err, "create brand")
}

func (r catalogStore) UpdateBrand(ctx context.Context, b *catalog.Brand) error {
	res, err := r.s.execer(ctx).ExecContext(ctx,
		`UPDATE brands SET name = $2 WHERE id = $1`, b.ID.String(), b.Name)
	if err != nil {
		return translate(err, "update brand")
	}
	return mustAffect(res, "update brand")
}

// DeleteBrand returns sentinel.ErrInvalidState while assets reference the brand.
func (r catalogStore) DeleteBrand(ctx context.Context, brandID id.BrandID) error {
	var inUse bool
	err := r.s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM assets WHERE brand_id = $1)`, brandID.String()).Scan(&inUse)
	if err != nil {
		return translate(err, "check brand usage")
	}
	if inUse {
		return sentinel.ErrInvalidState
	}
	res, err := r.s.execer(ctx).ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, brandID.String())
	if err != nil {
		return translate(err, "delete brand")
	}
	return mustAffect(res, "delete brand")
}

func (r catalogStore) FindBrand(ctx context.Context, brandID id.BrandID) (*catalog.Brand, error) {
	var (
		b     catalog.Brand
		rawID uuid.UUID
	)
	err := r.s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM brands WHERE id = $1`, brandID.String()).
		Scan(&rawID, &b.Name, &b.CreatedAt)
	if err != nil {
		return nil, translate(err, "find brand")
	}
	b.ID = id.BrandID(rawID)
	return &b, nil
}

func (r catalogStore) ListBrands(ctx context.Context) ([]*catalog.Brand, error) {
	rows, err := r.s.execer(ctx).QueryContext(ctx, `SELECT id, name, created_at FROM brands ORDER BY name`)
	if err != nil {
		return nil, translate(err, "list brands")
	}
	defer rows.Close()

	out := make([]*catalog.Brand, 0)
	for rows.Next() {
		var (
			b     catalog.Brand
			rawID uuid.UUID
		)
		if err := rows.Scan(&rawID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		b.ID = id.BrandID(rawID)
		out = append(out, &b)
	}
	return out, rows.Err()
}
