package memory

import (
	"context"
	"sort"
	"strings"

	deal "provenance/internal/deal/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
)

type dealStore struct{ t *txn }

func cloneDeal(d *deal.Deal) deal.Deal {
	c := *d
	c.SellerID = clonePtr(d.SellerID)
	c.ExternalSeller = clonePtr(d.ExternalSeller)
	c.ApprovedBy = clonePtr(d.ApprovedBy)
	c.ApprovedAt = clonePtr(d.ApprovedAt)
	c.CompletedAt = clonePtr(d.CompletedAt)
	c.Items = append([]deal.Item(nil), d.Items...)
	return c
}

func (s dealStore) Create(_ context.Context, d *deal.Deal) error {
	m := s.t.s.deals
	if _, ok := m[d.ID]; ok {
		return storage.Unique("id")
	}
	if _, ok := s.t.s.accounts[d.BuyerID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, item := range d.Items {
		if _, ok := s.t.s.assets[item.AssetID]; !ok {
			return sentinel.ErrNotFound
		}
	}
	if err := s.t.write(restore(m, d.ID)); err != nil {
		return err
	}
	m[d.ID] = cloneDeal(d)
	return nil
}

// Update writes lifecycle columns. Items are never replaced.
func (s dealStore) Update(_ context.Context, d *deal.Deal) error {
	m := s.t.s.deals
	existing, ok := m[d.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := s.t.write(restore(m, d.ID)); err != nil {
		return err
	}
	updated := cloneDeal(d)
	updated.Items = existing.Items
	m[d.ID] = updated
	return nil
}

func (s dealStore) FindByID(_ context.Context, dealID id.DealID) (*deal.Deal, error) {
	d, ok := s.t.s.deals[dealID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := cloneDeal(&d)
	return &c, nil
}

func (s dealStore) FindByIDForUpdate(ctx context.Context, dealID id.DealID) (*deal.Deal, error) {
	return s.FindByID(ctx, dealID)
}

func (s dealStore) ListByParticipant(_ context.Context, account id.AccountID) ([]*deal.Deal, error) {
	return s.filter(func(d *deal.Deal) bool { return d.Involves(account) }), nil
}

func (s dealStore) ListByStatus(_ context.Context, status deal.Status) ([]*deal.Deal, error) {
	return s.filter(func(d *deal.Deal) bool { return d.Status == status }), nil
}

func (s dealStore) Search(_ context.Context, query string) ([]*deal.Deal, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*deal.Deal{}, nil
	}
	accounts := s.t.s.accounts
	return s.filter(func(d *deal.Deal) bool {
		var fields []string
		if buyer, ok := accounts[d.BuyerID]; ok {
			fields = append(fields, buyer.Handle, buyer.Phone)
		}
		if d.SellerID != nil {
			if seller, ok := accounts[*d.SellerID]; ok {
				fields = append(fields, seller.Handle)
			}
		}
		if d.ExternalSeller != nil {
			fields = append(fields, d.ExternalSeller.Name, d.ExternalSeller.Phone)
		}
		for _, item := range d.Items {
			fields = append(fields, item.Serial)
		}
		return containsFold(q, fields...)
	}), nil
}

// filter returns matching deals newest first.
func (s dealStore) filter(keep func(*deal.Deal) bool) []*deal.Deal {
	out := make([]*deal.Deal, 0)
	for _, d := range s.t.s.deals {
		if keep(&d) {
			c := cloneDeal(&d)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
