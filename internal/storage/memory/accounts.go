package memory

import (
	"context"
	"sort"
	"strings"

	identity "provenance/internal/identity/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
)

type accountStore struct{ t *txn }

func (a accountStore) Create(_ context.Context, account *identity.Account) error {
	m := a.t.s.accounts
	if _, ok := m[account.ID]; ok {
		return storage.Unique("id")
	}
	if err := a.checkUnique(account); err != nil {
		return err
	}
	if err := a.t.write(restore(m, account.ID)); err != nil {
		return err
	}
	m[account.ID] = *account
	return nil
}

func (a accountStore) checkUnique(account *identity.Account) error {
	for _, existing := range a.t.s.accounts {
		if existing.ID == account.ID {
			continue
		}
		switch {
		case existing.Handle == account.Handle:
			return storage.Unique("handle")
		case existing.Email == account.Email:
			return storage.Unique("email")
		case existing.Phone == account.Phone:
			return storage.Unique("phone")
		case existing.NationalID == account.NationalID:
			return storage.Unique("national_id")
		}
	}
	return nil
}

func (a accountStore) Update(_ context.Context, account *identity.Account) error {
	m := a.t.s.accounts
	if _, ok := m[account.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if err := a.checkUnique(account); err != nil {
		return err
	}
	if err := a.t.write(restore(m, account.ID)); err != nil {
		return err
	}
	m[account.ID] = *account
	return nil
}

func (a accountStore) FindByID(_ context.Context, accountID id.AccountID) (*identity.Account, error) {
	acc, ok := a.t.s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &acc, nil
}

// FindByIDForUpdate is FindByID: the transaction already holds the store lock.
func (a accountStore) FindByIDForUpdate(ctx context.Context, accountID id.AccountID) (*identity.Account, error) {
	return a.FindByID(ctx, accountID)
}

func (a accountStore) FindByHandle(_ context.Context, handle string) (*identity.Account, error) {
	for _, acc := range a.t.s.accounts {
		if acc.Handle == handle {
			return &acc, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (a accountStore) List(_ context.Context, filter storage.AccountFilter) ([]*identity.Account, error) {
	text := strings.ToLower(strings.TrimSpace(filter.Text))
	out := make([]*identity.Account, 0)
	for _, acc := range a.t.s.accounts {
		if filter.Role != "" && acc.Role.Kind() != filter.Role {
			continue
		}
		if filter.PendingOnly && !acc.IsPendingShopkeeper() {
			continue
		}
		if text != "" && !containsFold(text, acc.Handle, acc.Email, acc.Phone) {
			continue
		}
		acc := acc
		out = append(out, &acc)
	}
	sortAccounts(out)
	return out, nil
}

func (a accountStore) Search(_ context.Context, field storage.AccountField, value string) ([]*identity.Account, error) {
	value = strings.TrimSpace(value)
	out := make([]*identity.Account, 0)
	for _, acc := range a.t.s.accounts {
		var match bool
		switch field {
		case storage.AccountFieldHandle:
			match = acc.Handle == value
		case storage.AccountFieldPhone:
			match = acc.Phone == value
		case storage.AccountFieldNationalID:
			match = acc.NationalID == value
		case storage.AccountFieldShopName:
			match = acc.ShopName != "" && containsFold(strings.ToLower(value), acc.ShopName)
		}
		if match {
			acc := acc
			out = append(out, &acc)
		}
	}
	sortAccounts(out)
	return out, nil
}

func sortAccounts(accounts []*identity.Account) {
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Handle < accounts[j].Handle })
}

// containsFold reports whether any field contains the lower-cased needle.
func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
