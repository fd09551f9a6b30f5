package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	asset "provenance/internal/asset/models"
	assetservice "provenance/internal/asset/service"
	"provenance/internal/audit"
	"provenance/internal/audit/mocks"
	catalog "provenance/internal/catalog/models"
	"provenance/internal/deal/models"
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
	ctrl      *gomock.Controller
	publisher *mocks.MockPublisher
	store     *memory.Store
	service   *Service
	assets    *assetservice.Service
	ownership *ownership.Service
	ctx       context.Context
	now       time.Time

	mu     sync.Mutex
	events []audit.Event

	admin, shop, alice, bob, fresh *accounts.Account
	category                        *catalog.Category
	brand                           *catalog.Brand
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.events = nil
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, e)
		return nil
	}).AnyTimes()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = memory.New()
	s.service = New(s.store, WithLogger(logger), WithAuditPublisher(s.publisher))
	s.assets = assetservice.New(s.store, assetservice.WithLogger(logger))
	s.ownership = ownership.New(s.store)
	s.now = time.Date(2024, 8, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	longAgo := s.now.Add(-30 * 24 * time.Hour)
	s.admin = s.account("admin", accounts.Admin{}, longAgo)
	s.shop = s.account("shop", accounts.Shopkeeper{Approved: true}, s.now)
	s.alice = s.account("alice", accounts.User{}, longAgo)
	s.bob = s.account("bob", accounts.User{}, longAgo)
	s.fresh = s.account("fresh", accounts.User{}, s.now)

	var err error
	s.category, err = catalog.NewCategory(id.NewCategoryID(), "Phones", longAgo)
	s.Require().NoError(err)
	s.brand, err = catalog.NewBrand(id.NewBrandID(), "Acme", longAgo)
	s.Require().NoError(err)

	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
		for _, a := range []*accounts.Account{s.admin, s.shop, s.alice, s.bob, s.fresh} {
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

func (s *ServiceSuite) account(handle string, role accounts.Role, created time.Time) *accounts.Account {
	shopName := ""
	if role.Kind() == accounts.RoleShopkeeper {
		shopName = handle + " store"
	}
	a, err := accounts.NewAccount(id.NewAccountID(), handle, handle+"@x.io", "p-"+handle, "n-"+handle, shopName, role, created)
	s.Require().NoError(err)
	return a
}

// register creates an asset for owner dated at registeredAt.
func (s *ServiceSuite) register(owner *accounts.Account, serial string, registeredAt time.Time) *asset.Asset {
	ctx := requestcontext.WithTime(context.Background(), registeredAt)
	a, err := s.assets.Register(ctx, owner.ID, assetservice.RegisterCommand{
		Name: "Phone", Serial: serial, CategoryID: s.category.ID, BrandID: s.brand.ID,
	})
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) owner(assetID id.AssetID) id.AccountID {
	a, err := s.assets.Get(s.ctx, s.admin.ID, assetID)
	s.Require().NoError(err)
	return a.OwnerID
}

func (s *ServiceSuite) ledgerOf(assetID id.AssetID) []ledger.Entry {
	entries, err := s.ownership.History(s.ctx, s.admin.ID, assetID)
	s.Require().NoError(err)
	return entries
}

func (s *ServiceSuite) actions() []audit.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Action, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

func item(serial string, price int64) ItemRequest {
	return ItemRequest{Serial: serial, Price: decimal.NewFromInt(price)}
}

func (s *ServiceSuite) TestTransferMovesOwnershipImmediately() {
	u := s.fresh
	v := s.bob
	a := s.register(u, "SN001", s.now)

	d, err := s.service.CreateTransfer(s.ctx, u.ID, CreateCommand{
		BuyerHandle: v.Handle,
		Items:       []ItemRequest{item("SN001", 500)},
	})
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, d.Status)
	s.Require().NotNil(d.CompletedAt)
	s.Equal(d.CreatedAt, *d.CompletedAt)
	s.True(d.TotalAmount.IsZero())

	s.Equal(v.ID, s.owner(a.ID))
	entries := s.ledgerOf(a.ID)
	s.Require().Len(entries, 1)
	s.Equal(u.ID, *entries[0].PreviousOwnerID)
	s.Equal(v.ID, entries[0].NewOwnerID)
	s.Equal(ledger.KindTransfer, entries[0].Kind)

	_, err = s.assets.UpdateStatus(s.ctx, u.ID, a.ID, asset.StatusLocked)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	s.Contains(s.actions(), audit.ActionOwnershipTransferred)
}

func (s *ServiceSuite) TestSaleApprovalTransfersOnce() {
	a := s.register(s.shop, "SK-1", s.now)

	d, err := s.service.CreateDeal(s.ctx, s.shop.ID, CreateCommand{
		BuyerHandle: s.bob.Handle,
		Items:       []ItemRequest{item("SK-1", 100)},
	})
	s.Require().NoError(err)
	s.Equal(models.StatusPending, d.Status)
	s.True(decimal.NewFromInt(100).Equal(d.TotalAmount))
	s.Equal(s.shop.ID, s.owner(a.ID))

	approved, err := s.service.Approve(s.ctx, s.admin.ID, d.ID, "checked receipt")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal(s.admin.ID, *approved.ApprovedBy)
	s.Equal(s.bob.ID, s.owner(a.ID))

	again, err := s.service.Approve(s.ctx, s.admin.ID, d.ID, "again")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, again.Status)
	s.Equal("checked receipt", again.ApprovalNotes)

	completed, err := s.service.Complete(s.ctx, s.admin.ID, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, completed.Status)
	s.NotNil(completed.CompletedAt)

	entries := s.ledgerOf(a.ID)
	s.Require().Len(entries, 1)
	s.Equal(s.shop.ID, *entries[0].PreviousOwnerID)
	s.Equal(s.bob.ID, entries[0].NewOwnerID)
	s.Equal(ledger.KindSale, entries[0].Kind)
	s.Equal(d.ID, *entries[0].DealID)

	s.Subset(s.actions(), []audit.Action{audit.ActionDealCreated, audit.ActionDealApproved, audit.ActionDealCompleted})
}

func (s *ServiceSuite) TestCreationIsAllOrNothing() {
	s.register(s.shop, "OK-1", s.now)
	locked := s.register(s.shop, "LOCKED-1", s.now)
	_, err := s.assets.UpdateStatus(s.ctx, s.shop.ID, locked.ID, asset.StatusLocked)
	s.Require().NoError(err)

	_, err = s.service.CreateDeal(s.ctx, s.shop.ID, CreateCommand{
		BuyerHandle: s.bob.Handle,
		Items:       []ItemRequest{item("OK-1", 10), item("LOCKED-1", 10)},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeEligibilityDenied))
	s.Equal(dErrors.ReasonRestricted, dErrors.ReasonOf(err))

	deals, err := s.service.ListForAccount(s.ctx, s.shop.ID, s.shop.ID)
	s.Require().NoError(err)
	s.Empty(deals)
}

func (s *ServiceSuite) TestCreationRules() {
	s.register(s.alice, "ALICE-OLD", s.now.Add(-4*24*time.Hour))
	s.register(s.alice, "ALICE-NEW", s.now)
	s.register(s.fresh, "FRESH-1", s.now)

	cases := []struct {
		name   string
		actor  id.AccountID
		cmd    CreateCommand
		code   dErrors.Code
		reason dErrors.Reason
	}{
		{"seller in cooldown", s.fresh.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("FRESH-1", 5)}}, dErrors.CodeEligibilityDenied, dErrors.ReasonSaleCooldown},
		{"asset in holding period", s.alice.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("ALICE-NEW", 5)}}, dErrors.CodeEligibilityDenied, dErrors.ReasonHoldingPeriod},
		{"seller does not own asset", s.bob.ID, CreateCommand{BuyerHandle: "alice", Items: []ItemRequest{item("ALICE-OLD", 5)}}, dErrors.CodeForbidden, ""},
		{"admin initiator", s.admin.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("ALICE-OLD", 5)}}, dErrors.CodeForbidden, ""},
		{"outsider initiator", s.bob.ID, CreateCommand{BuyerHandle: "fresh", SellerHandle: "alice", Items: []ItemRequest{item("ALICE-OLD", 5)}}, dErrors.CodeForbidden, ""},
		{"duplicate serials", s.alice.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("ALICE-OLD", 5), item("ALICE-OLD", 5)}}, dErrors.CodeValidation, ""},
		{"unknown serial", s.alice.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("NOPE", 5)}}, dErrors.CodeNotFound, ""},
		{"unknown buyer", s.alice.ID, CreateCommand{BuyerHandle: "nobody", Items: []ItemRequest{item("ALICE-OLD", 5)}}, dErrors.CodeNotFound, ""},
		{"self deal", s.alice.ID, CreateCommand{Items: []ItemRequest{item("ALICE-OLD", 5)}}, dErrors.CodeValidation, ""},
		{"negative price", s.alice.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("ALICE-OLD", -1)}}, dErrors.CodeValidation, ""},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.CreateDeal(s.ctx, tc.actor, tc.cmd)
			s.Require().Error(err)
			s.Equal(tc.code, dErrors.CodeOf(err))
			s.Equal(tc.reason, dErrors.ReasonOf(err))
		})
	}

	s.Run("eligible sale", func() {
		d, err := s.service.CreateDeal(s.ctx, s.alice.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("ALICE-OLD", 5)}})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, d.Status)
	})
}

func (s *ServiceSuite) TestApprovalRechecksAssets() {
	a := s.register(s.shop, "RECHECK-1", s.now)
	d, err := s.service.CreateDeal(s.ctx, s.shop.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("RECHECK-1", 20)}})
	s.Require().NoError(err)

	_, err = s.assets.UpdateStatus(s.ctx, s.shop.ID, a.ID, asset.StatusStolen)
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, s.admin.ID, d.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	current, err := s.service.Get(s.ctx, s.bob.ID, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, current.Status)
	s.Equal(s.shop.ID, s.owner(a.ID))
	s.Empty(s.ledgerOf(a.ID))
}

func (s *ServiceSuite) TestRejectAndCancel() {
	s.register(s.shop, "RC-1", s.now)
	s.register(s.shop, "RC-2", s.now)

	first, err := s.service.CreateDeal(s.ctx, s.shop.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("RC-1", 1)}})
	s.Require().NoError(err)

	_, err = s.service.Reject(s.ctx, s.bob.ID, first.ID, "no")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	rejected, err := s.service.Reject(s.ctx, s.admin.ID, first.ID, "missing receipt")
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, rejected.Status)

	_, err = s.service.Approve(s.ctx, s.admin.ID, first.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	second, err := s.service.CreateDeal(s.ctx, s.bob.ID, CreateCommand{SellerHandle: "shop", Items: []ItemRequest{item("RC-2", 1)}})
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.ctx, s.alice.ID, second.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Complete(s.ctx, s.admin.ID, second.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	cancelled, err := s.service.Cancel(s.ctx, s.bob.ID, second.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, cancelled.Status)

	_, err = s.service.Cancel(s.ctx, s.bob.ID, second.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	pending, err := s.service.ListByStatus(s.ctx, s.admin.ID, models.StatusPending)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *ServiceSuite) TestPurchaseFromExternalSeller() {
	a := s.register(s.alice, "EXT-1", s.now.Add(-5*24*time.Hour))

	d, err := s.service.CreatePurchase(s.ctx, s.bob.ID, CreateCommand{
		ExternalSeller: &models.ExternalSeller{Name: "Walk-in Trader", Phone: "555-0100"},
		Items:          []ItemRequest{item("EXT-1", 0)},
	})
	s.Require().NoError(err)
	s.Nil(d.SellerID)
	s.Equal(s.bob.ID, d.BuyerID)

	found, err := s.service.Search(s.ctx, s.admin.ID, "walk-in")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(d.ID, found[0].ID)

	_, err = s.service.Approve(s.ctx, s.admin.ID, d.ID, "")
	s.Require().NoError(err)
	s.Equal(s.bob.ID, s.owner(a.ID))

	_, err = s.service.CreatePurchase(s.ctx, s.bob.ID, CreateCommand{Items: []ItemRequest{item("EXT-1", 0)}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestUnifiedSaleIsImmediate() {
	a := s.register(s.shop, "UNI-1", s.now)

	d, err := s.service.CreateUnified(s.ctx, s.shop.ID, CreateCommand{
		Kind:        models.KindSale,
		BuyerHandle: "alice",
		Items:       []ItemRequest{item("UNI-1", 42)},
	})
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, d.Status)
	s.True(decimal.NewFromInt(42).Equal(d.TotalAmount))
	s.Equal(s.alice.ID, s.owner(a.ID))

	entries := s.ledgerOf(a.ID)
	s.Require().Len(entries, 1)
	s.Equal(ledger.KindTransfer, entries[0].Kind)
}

func (s *ServiceSuite) TestVisibility() {
	s.register(s.shop, "VIS-1", s.now)
	d, err := s.service.CreateDeal(s.ctx, s.shop.ID, CreateCommand{BuyerHandle: "bob", Items: []ItemRequest{item("VIS-1", 1)}})
	s.Require().NoError(err)

	_, err = s.service.Get(s.ctx, s.alice.ID, d.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.ListForAccount(s.ctx, s.alice.ID, s.bob.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	mine, err := s.service.ListForAccount(s.ctx, s.bob.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Len(mine, 1)

	_, err = s.service.Search(s.ctx, s.bob.ID, "bob")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
