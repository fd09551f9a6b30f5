package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"provenance/internal/asset/cache"
	"provenance/internal/asset/models"
	catalog "provenance/internal/catalog/models"
	accounts "provenance/internal/identity/models"
	ledger "provenance/internal/ownership/models"
	ownership "provenance/internal/ownership/service"
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

	admin, alice, bob, shop, pending *accounts.Account
	category                         *catalog.Category
	brand                            *catalog.Brand
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.service = New(s.store)
	s.now = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.admin = s.account("admin", accounts.Admin{})
	s.alice = s.account("alice", accounts.User{})
	s.bob = s.account("bob", accounts.User{})
	s.shop = s.account("shop", accounts.Shopkeeper{Approved: true})
	s.pending = s.account("pending", accounts.Shopkeeper{})

	var err error
	s.category, err = catalog.NewCategory(id.NewCategoryID(), "Phones", s.now)
	s.Require().NoError(err)
	s.brand, err = catalog.NewBrand(id.NewBrandID(), "Acme", s.now)
	s.Require().NoError(err)

	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
		for _, a := range []*accounts.Account{s.admin, s.alice, s.bob, s.shop, s.pending} {
			if err := st.Accounts().Create(ctx, a); err != nil {
				return err
			}
		}
		if err := st.Catalog().CreateCategory(ctx, s.category); err != nil {
			return err
		}
		return st.Catalog().CreateBrand(ctx, s.brand)
	}))
}

func (s *ServiceSuite) account(handle string, role accounts.Role) *accounts.Account {
	shopName := ""
	if role.Kind() == accounts.RoleShopkeeper {
		shopName = handle + " store"
	}
	a, err := accounts.NewAccount(id.NewAccountID(), handle, handle+"@x.io", "p-"+handle, "n-"+handle, shopName, role, s.now)
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) cmd(serial string) RegisterCommand {
	return RegisterCommand{Name: "Phone " + serial, Serial: serial, CategoryID: s.category.ID, BrandID: s.brand.ID}
}

func (s *ServiceSuite) register(owner *accounts.Account, serial string) *models.Asset {
	a, err := s.service.Register(s.ctx, owner.ID, s.cmd(serial))
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) transfer(a *models.Asset, to id.AccountID) {
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
		locked, err := st.Assets().FindByIDForUpdate(ctx, a.ID)
		if err != nil {
			return err
		}
		_, err = ownership.RecordTransfer(ctx, st, locked, to, nil, ledger.KindTransfer, s.now)
		return err
	}))
}

func (s *ServiceSuite) TestRegister() {
	a := s.register(s.alice, "SN001")
	s.Equal(models.StatusForSale, a.Status)
	s.Equal(s.alice.ID, a.OwnerID)

	history, err := s.service.History(s.ctx, s.alice.ID, a.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Nil(history[0].PreviousStatus)
	s.Equal(models.StatusForSale, history[0].NewStatus)
	s.Equal(a.CreatedAt, history[0].ChangedAt)

	s.Run("duplicate serial", func() {
		_, err := s.service.Register(s.ctx, s.bob.ID, s.cmd("SN001"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("admins cannot register", func() {
		_, err := s.service.Register(s.ctx, s.admin.ID, s.cmd("SN-ADMIN"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown brand", func() {
		cmd := s.cmd("SN-BRAND")
		cmd.BrandID = id.NewBrandID()
		_, err := s.service.Register(s.ctx, s.bob.ID, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("pending shopkeeper", func() {
		_, err := s.service.Register(s.ctx, s.pending.ID, s.cmd("SN-PENDING"))
		s.True(dErrors.HasCode(err, dErrors.CodeEligibilityDenied))
		s.Equal(dErrors.ReasonPendingApproval, dErrors.ReasonOf(err))
	})
}

func (s *ServiceSuite) TestQuotaInvariant() {
	for i := 0; i < accounts.RegularAssetQuota; i++ {
		s.register(s.alice, fmt.Sprintf("Q-%d", i))
	}

	_, err := s.service.Register(s.ctx, s.alice.ID, s.cmd("Q-over"))
	s.True(dErrors.HasCode(err, dErrors.CodeEligibilityDenied))
	s.Equal(dErrors.ReasonQuotaExceeded, dErrors.ReasonOf(err))

	owned, err := s.service.ListByOwner(s.ctx, s.alice.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Len(owned, accounts.RegularAssetQuota)

	_, err = s.service.Verify(s.ctx, "Q-over")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Run("shopkeepers hold more", func() {
		for i := 0; i < accounts.RegularAssetQuota+1; i++ {
			s.register(s.shop, fmt.Sprintf("SHOP-%d", i))
		}
	})
}

func (s *ServiceSuite) TestUpdateStatus() {
	a := s.register(s.alice, "SN-STATUS")

	s.Run("stranger is forbidden", func() {
		_, err := s.service.UpdateStatus(s.ctx, s.bob.ID, a.ID, models.StatusLocked)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("same status is invalid", func() {
		_, err := s.service.UpdateStatus(s.ctx, s.alice.ID, a.ID, models.StatusForSale)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("admin locks but cannot unlock", func() {
		updated, err := s.service.UpdateStatus(s.ctx, s.admin.ID, a.ID, models.StatusLocked)
		s.Require().NoError(err)
		s.Equal(models.StatusLocked, updated.Status)

		_, err = s.service.UpdateStatus(s.ctx, s.admin.ID, a.ID, models.StatusForSale)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("owner unlocks", func() {
		_, err := s.service.UpdateStatus(s.ctx, s.alice.ID, a.ID, models.StatusForSale)
		s.Require().NoError(err)
	})

	history, err := s.service.History(s.ctx, s.admin.ID, a.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal(models.StatusForSale, history[0].NewStatus)
	s.Equal(models.StatusLocked, *history[0].PreviousStatus)
	s.Equal(s.alice.ID, *history[0].ChangedBy)
	s.True(history[2].IsInitial())
}

func (s *ServiceSuite) TestStolenLock() {
	a := s.register(s.alice, "SN-STOLEN")
	s.transfer(a, s.bob.ID)

	_, err := s.service.UpdateStatus(s.ctx, s.bob.ID, a.ID, models.StatusStolen)
	s.Require().NoError(err)

	_, err = s.service.UpdateStatus(s.ctx, s.bob.ID, a.ID, models.StatusForSale)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	_, err = s.service.UpdateStatus(s.ctx, s.admin.ID, a.ID, models.StatusLocked)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	updated, err := s.service.UpdateStatus(s.ctx, s.alice.ID, a.ID, models.StatusForSale)
	s.Require().NoError(err)
	s.Equal(models.StatusForSale, updated.Status)
	s.Equal(s.bob.ID, updated.OwnerID)

	original, err := s.service.OriginalOwner(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(s.alice.ID, original)

	stolen, err := s.service.StolenReport(s.ctx, s.admin.ID)
	s.Require().NoError(err)
	s.Empty(stolen)
}

func (s *ServiceSuite) TestStatusUpdateIsAtomic() {
	a := s.register(s.alice, "SN-ATOMIC")
	failing := New(failingTx{Store: s.store})

	_, err := failing.UpdateStatus(s.ctx, s.alice.ID, a.ID, models.StatusLocked)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	current, err := s.service.Get(s.ctx, s.alice.ID, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusForSale, current.Status)

	history, err := s.service.History(s.ctx, s.alice.ID, a.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *ServiceSuite) TestInitialEntryIsSynthesizedOnce() {
	created := s.now.Add(-48 * time.Hour)
	legacy, err := models.NewAsset(id.NewAssetID(), "Old", "LEGACY-1", s.alice.ID, s.category.ID, s.brand.ID, created)
	s.Require().NoError(err)
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
		if err := st.Assets().Create(ctx, legacy); err != nil {
			return err
		}
		entry := legacy.ApplyStatus(models.StatusLocked, s.alice.ID, s.now.Add(-time.Hour))
		if err := st.StatusHistory().Append(ctx, &entry); err != nil {
			return err
		}
		return st.Assets().Update(ctx, legacy)
	}))

	written, err := s.service.EnsureInitialEntry(s.ctx, legacy.ID)
	s.Require().NoError(err)
	s.True(written)

	written, err = s.service.EnsureInitialEntry(s.ctx, legacy.ID)
	s.Require().NoError(err)
	s.False(written)

	history, err := s.service.History(s.ctx, s.alice.ID, legacy.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	initial := history[1]
	s.True(initial.IsInitial())
	s.Equal(models.StatusForSale, initial.NewStatus)
	s.Equal(created, initial.ChangedAt)
	s.Equal(s.alice.ID, *initial.ChangedBy)
}

func (s *ServiceSuite) TestCanBeSold() {
	a := s.register(s.alice, "SN-HOLD")
	ok, err := s.service.CanBeSold(s.ctx, a.ID)
	s.Require().NoError(err)
	s.False(ok)

	later := requestcontext.WithTime(context.Background(), s.now.Add(accounts.SaleCooldown))
	ok, err = s.service.CanBeSold(later, a.ID)
	s.Require().NoError(err)
	s.True(ok)

	shopAsset := s.register(s.shop, "SN-SHOP")
	ok, err = s.service.CanBeSold(s.ctx, shopAsset.ID)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ServiceSuite) TestVerifyThroughCache() {
	server := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()
	cached := New(s.store, WithCache(cache.New(client)))

	a, err := cached.Register(s.ctx, s.shop.ID, s.cmd("SN-VERIFY"))
	s.Require().NoError(err)

	v, err := cached.Verify(s.ctx, "SN-VERIFY")
	s.Require().NoError(err)
	s.Equal("Acme", v.Brand)
	s.Equal("Phones", v.Category)
	s.True(v.CanSell)

	_, err = cached.UpdateStatus(s.ctx, s.shop.ID, a.ID, models.StatusStolen)
	s.Require().NoError(err)

	v, err = cached.Verify(s.ctx, "SN-VERIFY")
	s.Require().NoError(err)
	s.Equal(string(models.StatusStolen), v.Status)
	s.False(v.CanSell)
}

func (s *ServiceSuite) TestSearch() {
	s.register(s.alice, "FIND-1")

	found, err := s.service.Search(s.ctx, s.admin.ID, storage.AssetFieldOwnerHandle, "alice")
	s.Require().NoError(err)
	s.Len(found, 1)

	_, err = s.service.Search(s.ctx, s.alice.ID, storage.AssetFieldSerial, "FIND-1")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.ListByOwner(s.ctx, s.bob.ID, s.alice.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

// failingTx fails every asset update after the history entry was appended.
type failingTx struct {
	*memory.Store
}

func (f failingTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores storage.Stores) error) error {
	return f.Store.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		return fn(ctx, failingStores{Stores: st})
	})
}

type failingStores struct {
	storage.Stores
}

func (f failingStores) Assets() storage.AssetStore {
	return failingAssets{AssetStore: f.Stores.Assets()}
}

type failingAssets struct {
	storage.AssetStore
}

func (failingAssets) Update(context.Context, *models.Asset) error {
	return errors.New("disk full")
}
