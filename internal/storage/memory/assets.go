package memory

import (
	"context"
	"sort"
	"strings"

	asset "provenance/internal/asset/models"
	ownership "provenance/internal/ownership/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
)

type assetStore struct{ t *txn }

func (a assetStore) Create(_ context.Context, as *asset.Asset) error {
	m := a.t.s.assets
	if _, ok := m[as.ID]; ok {
		return storage.Unique("id")
	}
	for _, existing := range m {
		if existing.Serial == as.Serial {
			return storage.Unique("serial")
		}
	}
	if err := a.t.write(restore(m, as.ID)); err != nil {
		return err
	}
	m[as.ID] = *as
	return nil
}

func (a assetStore) Update(_ context.Context, as *asset.Asset) error {
	m := a.t.s.assets
	existing, ok := m[as.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Serial != as.Serial {
		return sentinel.ErrInvalidState
	}
	if err := a.t.write(restore(m, as.ID)); err != nil {
		return err
	}
	m[as.ID] = *as
	return nil
}

func (a assetStore) FindByID(_ context.Context, assetID id.AssetID) (*asset.Asset, error) {
	as, ok := a.t.s.assets[assetID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &as, nil
}

func (a assetStore) FindByIDForUpdate(ctx context.Context, assetID id.AssetID) (*asset.Asset, error) {
	return a.FindByID(ctx, assetID)
}

func (a assetStore) FindBySerial(_ context.Context, serial string) (*asset.Asset, error) {
	for _, as := range a.t.s.assets {
		if as.Serial == serial {
			return &as, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (a assetStore) FindBySerialForUpdate(ctx context.Context, serial string) (*asset.Asset, error) {
	return a.FindBySerial(ctx, serial)
}

func (a assetStore) CountByOwner(_ context.Context, owner id.AccountID) (int, error) {
	n := 0
	for _, as := range a.t.s.assets {
		if as.OwnerID == owner {
			n++
		}
	}
	return n, nil
}

func (a assetStore) CountByBrand(_ context.Context, brand id.BrandID) (int, error) {
	n := 0
	for _, as := range a.t.s.assets {
		if as.BrandID == brand {
			n++
		}
	}
	return n, nil
}

func (a assetStore) ListByOwner(_ context.Context, owner id.AccountID) ([]*asset.Asset, error) {
	return a.filter(func(as asset.Asset) bool { return as.OwnerID == owner }), nil
}

func (a assetStore) ListByStatus(_ context.Context, status asset.Status) ([]*asset.Asset, error) {
	return a.filter(func(as asset.Asset) bool { return as.Status == status }), nil
}

func (a assetStore) Search(_ context.Context, field storage.AssetField, value string) ([]*asset.Asset, error) {
	value = strings.TrimSpace(value)
	switch field {
	case storage.AssetFieldSerial:
		return a.filter(func(as asset.Asset) bool { return as.Serial == value }), nil
	case storage.AssetFieldOwnerHandle, storage.AssetFieldOwnerPhone:
		return a.filter(func(as asset.Asset) bool {
			owner, ok := a.t.s.accounts[as.OwnerID]
			if !ok {
				return false
			}
			if field == storage.AssetFieldOwnerHandle {
				return owner.Handle == value
			}
			return owner.Phone == value
		}), nil
	}
	return []*asset.Asset{}, nil
}

// filter returns matching assets newest first.
func (a assetStore) filter(keep func(asset.Asset) bool) []*asset.Asset {
	out := make([]*asset.Asset, 0)
	for _, as := range a.t.s.assets {
		if keep(as) {
			as := as
			out = append(out, &as)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Serial < out[j].Serial
	})
	return out
}

type statusHistoryStore struct{ t *txn }

func (h statusHistoryStore) Append(_ context.Context, entry *asset.StatusHistoryEntry) error {
	if _, ok := h.t.s.assets[entry.AssetID]; !ok {
		return sentinel.ErrNotFound
	}
	if entry.IsInitial() {
		for _, e := range h.t.s.statusHistory[entry.AssetID] {
			if e.IsInitial() {
				return storage.Unique("initial status entry")
			}
		}
	}
	return h.append(entry)
}

func (h statusHistoryStore) AppendInitial(_ context.Context, entry *asset.StatusHistoryEntry) (bool, error) {
	if !entry.IsInitial() {
		return false, sentinel.ErrInvalidState
	}
	if _, ok := h.t.s.assets[entry.AssetID]; !ok {
		return false, sentinel.ErrNotFound
	}
	if asset.HasInitial(h.t.s.statusHistory[entry.AssetID]) {
		return false, nil
	}
	if err := h.append(entry); err != nil {
		return false, err
	}
	return true, nil
}

func (h statusHistoryStore) append(entry *asset.StatusHistoryEntry) error {
	m := h.t.s.statusHistory
	if err := h.t.write(restore(m, entry.AssetID)); err != nil {
		return err
	}
	entry.Seq = h.t.nextSeq()
	entries := append([]asset.StatusHistoryEntry(nil), m[entry.AssetID]...)
	m[entry.AssetID] = append(entries, *entry)
	return nil
}

func (h statusHistoryStore) ListByAsset(_ context.Context, assetID id.AssetID) ([]asset.StatusHistoryEntry, error) {
	entries := append([]asset.StatusHistoryEntry(nil), h.t.s.statusHistory[assetID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ChangedAt.Equal(entries[j].ChangedAt) {
			return entries[i].ChangedAt.Before(entries[j].ChangedAt)
		}
		return entries[i].Seq < entries[j].Seq
	})
	return entries, nil
}

type ownershipStore struct{ t *txn }

func (o ownershipStore) Append(_ context.Context, entry *ownership.Entry) error {
	if _, ok := o.t.s.assets[entry.AssetID]; !ok {
		return sentinel.ErrNotFound
	}
	m := o.t.s.ownership
	if entry.DealID != nil && m[entry.AssetID].HasDealTransfer(*entry.DealID) {
		return storage.Unique("deal transfer")
	}
	if err := o.t.write(restore(m, entry.AssetID)); err != nil {
		return err
	}
	entry.Seq = o.t.nextSeq()
	ledger := append(ownership.Ledger(nil), m[entry.AssetID]...)
	m[entry.AssetID] = append(ledger, *entry)
	return nil
}

func (o ownershipStore) ListByAsset(_ context.Context, assetID id.AssetID) (ownership.Ledger, error) {
	ledger := append(ownership.Ledger(nil), o.t.s.ownership[assetID]...)
	sort.SliceStable(ledger, func(i, j int) bool {
		if !ledger[i].TransferredAt.Equal(ledger[j].TransferredAt) {
			return ledger[i].TransferredAt.Before(ledger[j].TransferredAt)
		}
		return ledger[i].Seq < ledger[j].Seq
	})
	return ledger, nil
}
