//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	asset "provenance/internal/asset/models"
	assetservice "provenance/internal/asset/service"
	catalog "provenance/internal/catalog/models"
	dealservice "provenance/internal/deal/service"
	deal "provenance/internal/deal/models"
	accounts "provenance/internal/identity/models"
	ownership "provenance/internal/ownership/service"
	"provenance/internal/storage"
	"provenance/internal/storage/postgres"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
	"provenance/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite
	pg        *containers.Postgres
	store     *postgres.Store
	assets    *assetservice.Service
	deals     *dealservice.Service
	ownership *ownership.Service
	ctx       context.Context
	now       time.Time

	admin, alice, bob *accounts.Account
	category          *catalog.Category
	brand             *catalog.Brand
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgres(s.T())
	s.store = postgres.New(s.pg.DB, postgres.WithTxTimeout(10*time.Second))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.assets = assetservice.New(s.store, assetservice.WithLogger(logger))
	s.deals = dealservice.New(s.store, dealservice.WithLogger(logger))
	s.ownership = ownership.New(s.store)
}

func (s *PostgresSuite) SetupTest() {
	s.pg.Truncate(s.T())
	s.now = time.Date(2024, 8, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	longAgo := s.now.Add(-60 * 24 * time.Hour)

	s.admin = s.account("admin", accounts.Admin{CanGrantAdmin: true}, longAgo)
	s.alice = s.account("alice", accounts.User{}, longAgo)
	s.bob = s.account("bob", accounts.User{}, longAgo)

	var err error
	s.category, err = catalog.NewCategory(id.NewCategoryID(), "Phones", longAgo)
	s.Require().NoError(err)
	s.brand, err = catalog.NewBrand(id.NewBrandID(), "Acme", longAgo)
	s.Require().NoError(err)

	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
		for _, a := range []*accounts.Account{s.admin, s.alice, s.bob} {
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

func (s *PostgresSuite) account(handle string, role accounts.Role, created time.Time) *accounts.Account {
	a, err := accounts.NewAccount(id.NewAccountID(), handle, handle+"@x.io", "p-"+handle, "n-"+handle, "", role, created)
	s.Require().NoError(err)
	return a
}

func (s *PostgresSuite) register(owner *accounts.Account, serial string, at time.Time) (*asset.Asset, error) {
	return s.assets.Register(requestcontext.WithTime(context.Background(), at), owner.ID, assetservice.RegisterCommand{
		Name: "Phone", Serial: serial, CategoryID: s.category.ID, BrandID: s.brand.ID,
	})
}

func (s *PostgresSuite) TestConcurrentRegistrationOfOneSerial() {
	const attempts = 6
	owners := []*accounts.Account{s.alice, s.bob}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(owner *accounts.Account) {
			defer wg.Done()
			_, err := s.register(owner, "SN-RACE", s.now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts++
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}(owners[i%len(owners)])
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(attempts-1, conflicts)

	found, err := s.assets.Search(s.ctx, s.admin.ID, storage.AssetFieldSerial, "SN-RACE")
	s.Require().NoError(err)
	s.Len(found, 1)

	history, err := s.assets.History(s.ctx, found[0].OwnerID, found[0].ID)
	s.Require().NoError(err)
	s.Len(history, 1, "only the winning registration writes a creation entry")
}

func (s *PostgresSuite) TestConcurrentApprovalTransfersOnce() {
	a, err := s.register(s.alice, "SN-SALE", s.now.Add(-30*24*time.Hour))
	s.Require().NoError(err)

	d, err := s.deals.CreateDeal(s.ctx, s.alice.ID, dealservice.CreateCommand{
		Kind:        deal.KindSale,
		BuyerHandle: s.bob.Handle,
		Items:       []dealservice.ItemRequest{{Serial: a.Serial}},
	})
	s.Require().NoError(err)
	s.Require().Equal(deal.StatusPending, d.Status)

	const approvers = 5
	var wg sync.WaitGroup
	errs := make([]error, approvers)
	for i := 0; i < approvers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.deals.Approve(s.ctx, s.admin.ID, d.ID, "ok")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		s.NoError(err)
	}

	entries, err := s.ownership.History(s.ctx, s.admin.ID, a.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(s.bob.ID, entries[0].NewOwnerID)

	got, err := s.deals.Get(s.ctx, s.admin.ID, d.ID)
	s.Require().NoError(err)
	s.Equal(deal.StatusApproved, got.Status)

	completed, err := s.deals.Complete(s.ctx, s.admin.ID, d.ID)
	s.Require().NoError(err)
	s.Equal(deal.StatusCompleted, completed.Status)

	entries, err = s.ownership.History(s.ctx, s.admin.ID, a.ID)
	s.Require().NoError(err)
	s.Len(entries, 1, "completion skips items the approval already moved")
}

func (s *PostgresSuite) TestRollbackLeavesNoPartialWrite() {
	a, err := s.register(s.alice, "SN-RB", s.now)
	s.Require().NoError(err)

	boom := dErrors.New(dErrors.CodeInternal, "boom")
	err = s.store.RunInTx(s.ctx, func(ctx context.Context, st storage.Stores) error {
		locked, err := st.Assets().FindByIDForUpdate(ctx, a.ID)
		s.Require().NoError(err)
		entry := locked.ApplyStatus(asset.StatusStolen, s.alice.ID, s.now)
		s.Require().NoError(st.StatusHistory().Append(ctx, &entry))
		s.Require().NoError(st.Assets().Update(ctx, locked))
		return boom
	})
	s.Require().ErrorIs(err, boom)

	got, err := s.assets.Get(s.ctx, s.alice.ID, a.ID)
	s.Require().NoError(err)
	s.Equal(asset.StatusForSale, got.Status)

	history, err := s.assets.History(s.ctx, s.alice.ID, a.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *PostgresSuite) TestViewRejectsWrites() {
	err := s.store.View(s.ctx, func(ctx context.Context, st storage.Stores) error {
		return st.Accounts().Create(ctx, s.account("carol", accounts.User{}, s.now))
	})
	s.Error(err)
}
