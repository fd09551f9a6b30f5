package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"provenance/internal/identity/models"
	"provenance/internal/storage"
	"provenance/internal/storage/memory"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *Service
	ctx     context.Context
	now     time.Time
	root    *models.Account
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.service = New(s.store)
	s.now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	var err error
	s.root, err = models.NewAccount(id.NewAccountID(), "root", "root@x.io", "000", "N-000", "", models.Admin{CanGrantAdmin: true}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
		return st.Accounts().Create(ctx, s.root)
	}))
}

func (s *ServiceSuite) register(handle string, shopkeeper bool) *models.Account {
	cmd := RegisterAccountCommand{
		Handle:     handle,
		Email:      handle + "@x.io",
		Phone:      "phone-" + handle,
		NationalID: "nid-" + handle,
		Shopkeeper: shopkeeper,
	}
	if shopkeeper {
		cmd.ShopName = handle + " shop"
	}
	account, err := s.service.RegisterAccount(s.ctx, cmd)
	s.Require().NoError(err)
	return account
}

func (s *ServiceSuite) TestRegisterAccount() {
	s.Run("user", func() {
		account := s.register("alice", false)
		s.Equal(models.RoleUser, account.Role.Kind())
		s.Equal(s.now, account.CreatedAt)
	})

	s.Run("shopkeeper starts pending", func() {
		account := s.register("bob", true)
		s.True(account.IsPendingShopkeeper())
	})

	s.Run("duplicate phone is a conflict naming the field", func() {
		_, err := s.service.RegisterAccount(s.ctx, RegisterAccountCommand{
			Handle: "carol", Email: "carol@x.io", Phone: "phone-alice", NationalID: "nid-carol",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "phone")
	})

	s.Run("missing fields fail validation", func() {
		_, err := s.service.RegisterAccount(s.ctx, RegisterAccountCommand{Handle: "dave"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestShopkeeperApproval() {
	shop := s.register("shop", true)
	user := s.register("user", false)

	s.Run("non-admin is forbidden", func() {
		_, err := s.service.ApproveShopkeeper(s.ctx, user.ID, shop.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin approves", func() {
		approved, err := s.service.ApproveShopkeeper(s.ctx, s.root.ID, shop.ID)
		s.Require().NoError(err)
		s.False(approved.IsPendingShopkeeper())
	})

	s.Run("reject keeps the shopkeeper role", func() {
		rejected, err := s.service.RejectShopkeeper(s.ctx, s.root.ID, shop.ID)
		s.Require().NoError(err)
		s.True(rejected.IsShopkeeper())
		s.True(rejected.IsPendingShopkeeper())
	})

	s.Run("approving a user is an invalid transition", func() {
		_, err := s.service.ApproveShopkeeper(s.ctx, s.root.ID, user.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("pending listing", func() {
		pending, err := s.service.ListPendingShopkeepers(s.ctx, s.root.ID)
		s.Require().NoError(err)
		s.Require().Len(pending, 1)
		s.Equal(shop.ID, pending[0].ID)
	})
}

func (s *ServiceSuite) TestCreateAdmin() {
	cmd := CreateAdminCommand{Handle: "ops", Email: "ops@x.io", Phone: "ops", NationalID: "N-ops", Level: AdminLevelLimited}

	limited, err := s.service.CreateAdmin(s.ctx, s.root.ID, cmd)
	s.Require().NoError(err)
	s.True(limited.IsAdmin())
	s.False(limited.CanGrantAdmin())

	s.Run("limited admin cannot create admins", func() {
		_, err := s.service.CreateAdmin(s.ctx, limited.ID, CreateAdminCommand{
			Handle: "ops2", Email: "ops2@x.io", Phone: "ops2", NationalID: "N-ops2",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("elevation happens once", func() {
		elevated, err := s.service.GrantAdminPrivilege(s.ctx, s.root.ID, limited.ID)
		s.Require().NoError(err)
		s.True(elevated.CanGrantAdmin())

		_, err = s.service.GrantAdminPrivilege(s.ctx, s.root.ID, limited.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown level", func() {
		bad := cmd
		bad.Handle, bad.Level = "x", "super"
		_, err := s.service.CreateAdmin(s.ctx, s.root.ID, bad)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("anonymous actor", func() {
		_, err := s.service.CreateAdmin(s.ctx, id.AccountID{}, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestEligibility() {
	user := s.register("eve", false)

	_, report, err := s.service.Eligibility(s.ctx, user.ID, user.ID)
	s.Require().NoError(err)
	s.True(report.CanRegister)
	s.False(report.CanInitiateSale)
	s.Require().NotNil(report.SaleAvailableFrom)
	s.Equal(user.CreatedAt.Add(models.SaleCooldown), *report.SaleAvailableFrom)

	later := requestcontext.WithTime(context.Background(), s.now.Add(models.SaleCooldown))
	_, report, err = s.service.Eligibility(later, user.ID, user.ID)
	s.Require().NoError(err)
	s.True(report.CanInitiateSale)

	other := s.register("frank", false)
	_, _, err = s.service.Eligibility(s.ctx, other.ID, user.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestSubscriptionAndSearch() {
	user := s.register("gina", false)

	updated, err := s.service.SetSubscription(s.ctx, s.root.ID, user.ID, true)
	s.Require().NoError(err)
	s.True(updated.HasSubscription)

	found, err := s.service.FindAccounts(s.ctx, s.root.ID, storage.AccountFieldPhone, "phone-gina")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.True(found[0].HasSubscription)

	_, err = s.service.FindAccounts(s.ctx, s.root.ID, "email", "x")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.FindAccounts(s.ctx, user.ID, storage.AccountFieldPhone, "phone-gina")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestBootstrapAdmin() {
	cmd := CreateAdminCommand{Handle: "first", Email: "first@x.io", Phone: "111", NationalID: "N-111"}

	s.Run("skipped when an administrator exists", func() {
		account, created, err := s.service.BootstrapAdmin(s.ctx, cmd)
		s.Require().NoError(err)
		s.False(created)
		s.Nil(account)
	})

	s.Run("creates a full administrator on an empty store", func() {
		svc := New(memory.New())
		account, created, err := svc.BootstrapAdmin(s.ctx, cmd)
		s.Require().NoError(err)
		s.True(created)
		s.True(account.CanGrantAdmin())

		_, created, err = svc.BootstrapAdmin(s.ctx, cmd)
		s.Require().NoError(err)
		s.False(created)
	})
}
