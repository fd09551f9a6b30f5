package service

import (
	"context"
	"errors"
	"log/slog"

	"provenance/internal/audit"
	"provenance/internal/catalog/models"
	identity "provenance/internal/identity/service"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

// Service manages the category and brand reference data assets point at.
type Service struct {
	tx        storage.Tx
	logger    *slog.Logger
	publisher audit.Publisher
	auditor   *audit.Emitter
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func New(tx storage.Tx, opts ...Option) *Service {
	s := &Service{tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.auditor = audit.NewEmitter(s.publisher, s.logger)
	return s
}

func (s *Service) CreateCategory(ctx context.Context, actorID id.AccountID, name string) (*models.Category, error) {
	category, err := models.NewCategory(id.NewCategoryID(), name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		return translate(st.Catalog().CreateCategory(ctx, category), "category")
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "category created", "category_id", category.ID, "name", category.Name)
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionCategoryCreated, ActorID: actorID, To: category.Name})
	return category, nil
}

func (s *Service) CreateBrand(ctx context.Context, actorID id.AccountID, name string) (*models.Brand, error) {
	brand, err := models.NewBrand(id.NewBrandID(), name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		return translate(st.Catalog().CreateBrand(ctx, brand), "brand")
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "brand created", "brand_id", brand.ID, "name", brand.Name)
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionBrandCreated, ActorID: actorID, To: brand.Name})
	return brand, nil
}

func (s *Service) RenameBrand(ctx context.Context, actorID id.AccountID, brandID id.BrandID, name string) (*models.Brand, error) {
	var (
		brand *models.Brand
		from  string
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		var err error
		brand, err = st.Catalog().FindBrand(ctx, brandID)
		if err != nil {
			return translate(err, "brand")
		}
		from = brand.Name
		if err := brand.Rename(name); err != nil {
			return err
		}
		return translate(st.Catalog().UpdateBrand(ctx, brand), "brand")
	})
	if err != nil {
		return nil, err
	}
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionBrandRenamed, ActorID: actorID, From: from, To: brand.Name})
	return brand, nil
}

// DeleteBrand removes a brand no asset references.
func (s *Service) DeleteBrand(ctx context.Context, actorID id.AccountID, brandID id.BrandID) error {
	var name string
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		brand, err := st.Catalog().FindBrand(ctx, brandID)
		if err != nil {
			return translate(err, "brand")
		}
		name = brand.Name
		return translate(st.Catalog().DeleteBrand(ctx, brandID), "brand")
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "brand deleted", "brand_id", brandID)
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionBrandDeleted, ActorID: actorID, From: name})
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		var err error
		categories, err = st.Catalog().ListCategories(ctx)
		return translate(err, "category")
	})
	return categories, err
}

func (s *Service) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	var brands []*models.Brand
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		var err error
		brands, err = st.Catalog().ListBrands(ctx)
		return translate(err, "brand")
	})
	return brands, err
}

func translate(err error, kind string) error {
	switch {
	case err == nil:
		return nil
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, kind+" not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, kind+" name already exists")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, kind+" is referenced by registered assets")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "catalog store failure")
	}
}
