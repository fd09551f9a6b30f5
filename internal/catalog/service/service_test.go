package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	asset "provenance/internal/asset/models"
	identity "provenance/internal/identity/models"
	"provenance/internal/storage"
	"provenance/internal/storage/memory"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *Service
	ctx     context.Context
	admin   *identity.Account
	user    *identity.Account
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.service = New(s.store)
	s.ctx = context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	var err error
	s.admin, err = identity.NewAccount(id.NewAccountID(), "admin", "admin@x.io", "1", "N-1", "", identity.Admin{}, now)
	s.Require().NoError(err)
	s.user, err = identity.NewAccount(id.NewAccountID(), "user", "user@x.io", "2", "N-2", "", identity.User{}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
		if err := st.Accounts().Create(ctx, s.admin); err != nil {
			return err
		}
		return st.Accounts().Create(ctx, s.user)
	}))
}

func (s *ServiceSuite) TestCategories() {
	_, err := s.service.CreateCategory(s.ctx, s.user.ID, "Phones")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.CreateCategory(s.ctx, s.admin.ID, "Phones")
	s.Require().NoError(err)
	_, err = s.service.CreateCategory(s.ctx, s.admin.ID, "Laptops")
	s.Require().NoError(err)

	_, err = s.service.CreateCategory(s.ctx, s.admin.ID, "Phones")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	categories, err := s.service.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(categories, 2)
	s.Equal("Laptops", categories[0].Name)
}

func (s *ServiceSuite) TestBrandLifecycle() {
	brand, err := s.service.CreateBrand(s.ctx, s.admin.ID, "Acme")
	s.Require().NoError(err)

	renamed, err := s.service.RenameBrand(s.ctx, s.admin.ID, brand.ID, "  Acme Corp ")
	s.Require().NoError(err)
	s.Equal("Acme Corp", renamed.Name)

	_, err = s.service.RenameBrand(s.ctx, s.admin.ID, id.NewBrandID(), "Ghost")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Run("referenced brand cannot be deleted", func() {
		a, err := asset.NewAsset(id.NewAssetID(), "Phone", "SN-1", s.user.ID, id.NewCategoryID(), brand.ID, time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
			return st.Assets().Create(ctx, a)
		}))

		err = s.service.DeleteBrand(s.ctx, s.admin.ID, brand.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unreferenced brand is deleted", func() {
		other, err := s.service.CreateBrand(s.ctx, s.admin.ID, "Other")
		s.Require().NoError(err)
		s.Require().NoError(s.service.DeleteBrand(s.ctx, s.admin.ID, other.ID))

		brands, err := s.service.ListBrands(s.ctx)
		s.Require().NoError(err)
		s.Len(brands, 1)
	})
}
