package models

import (
	"strings"
	"time"

	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

const maxNameLength = 100

// Category classifies assets (phone, laptop, ...). Names are unique.
type Category struct {
	ID        id.CategoryID
	Name      string
	CreatedAt time.Time
}

// Brand names a manufacturer. Names are unique; a brand referenced by any
// asset cannot be deleted.
type Brand struct {
	ID        id.BrandID
	Name      string
	CreatedAt time.Time
}

func NewCategory(categoryID id.CategoryID, name string, now time.Time) (*Category, error) {
	name, err := normalizeName("category", name)
	if err != nil {
		return nil, err
	}
	return &Category{ID: categoryID, Name: name, CreatedAt: now}, nil
}

func NewBrand(brandID id.BrandID, name string, now time.Time) (*Brand, error) {
	name, err := normalizeName("brand", name)
	if err != nil {
		return nil, err
	}
	return &Brand{ID: brandID, Name: name, CreatedAt: now}, nil
}

// Rename replaces the brand name after validation.
func (b *Brand) Rename(name string) error {
	name, err := normalizeName("brand", name)
	if err != nil {
		return err
	}
	b.Name = name
	return nil
}

func normalizeName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, kind+" name is required")
	}
	if len(name) > maxNameLength {
		return "", dErrors.New(dErrors.CodeValidation, kind+" name must be 100 characters or less")
	}
	return name, nil
}
