// Package memory is an in-process storage backend used by tests and by the
// server when no database is configured.
//
// A single RWMutex serializes write transactions. Every mutation records an
// undo step; when the transaction function fails (or panics) the steps are
// replayed in reverse so no partial write survives.
package memory

import (
	"context"
	"errors"
	"sync"

	asset "provenance/internal/asset/models"
	catalog "provenance/internal/catalog/models"
	deal "provenance/internal/deal/models"
	identity "provenance/internal/identity/models"
	ownership "provenance/internal/ownership/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

var errReadOnly = errors.New("write attempted in read-only view")

// Store holds all tables in memory.
type Store struct {
	mu sync.RWMutex

	accounts      map[id.AccountID]identity.Account
	categories    map[id.CategoryID]catalog.Category
	brands        map[id.BrandID]catalog.Brand
	assets        map[id.AssetID]asset.Asset
	statusHistory map[id.AssetID][]asset.StatusHistoryEntry
	ownership     map[id.AssetID]ownership.Ledger
	deals         map[id.DealID]deal.Deal
	seq           int64
}

func New() *Store {
	return &Store{
		accounts:      make(map[id.AccountID]identity.Account),
		categories:    make(map[id.CategoryID]catalog.Category),
		brands:        make(map[id.BrandID]catalog.Brand),
		assets:        make(map[id.AssetID]asset.Asset),
		statusHistory: make(map[id.AssetID][]asset.StatusHistoryEntry),
		ownership:     make(map[id.AssetID]ownership.Ledger),
		deals:         make(map[id.DealID]deal.Deal),
	}
}

// RunInTx runs fn under the write lock and rolls back on error or panic.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, stores storage.Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &txn{s: s, writable: true}
	defer func() {
		if r := recover(); r != nil {
			t.rollback()
			panic(r)
		}
		if err != nil {
			t.rollback()
		}
	}()
	return fn(ctx, t)
}

// View runs fn under the read lock. Writes through the view fail.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, stores storage.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &txn{s: s})
}

// txn is the Stores view handed to a transaction function.
type txn struct {
	s        *Store
	writable bool
	undo     []func()
}

func (t *txn) Accounts() storage.AccountStore           { return accountStore{t} }
func (t *txn) Catalog() storage.CatalogStore             { return catalogStore{t} }
func (t *txn) Assets() storage.AssetStore                { return assetStore{t} }
func (t *txn) StatusHistory() storage.StatusHistoryStore { return statusHistoryStore{t} }
func (t *txn) Ownership() storage.OwnershipStore         { return ownershipStore{t} }
func (t *txn) Deals() storage.DealStore                  { return dealStore{t} }

func (t *txn) write(undo func()) error {
	if !t.writable {
		return errReadOnly
	}
	t.undo = append(t.undo, undo)
	return nil
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txn) nextSeq() int64 {
	t.s.seq++
	return t.s.seq
}

// restore returns an undo step that puts m[k] back the way it is now.
func restore[K comparable, V any](m map[K]V, k K) func() {
	prev, existed := m[k]
	return func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
