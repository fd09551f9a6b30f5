package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

func TestRoleFromFlags(t *testing.T) {
	assert.Equal(t, Admin{CanGrantAdmin: true}, RoleFromFlags(true, true, true, true))
	assert.Equal(t, Shopkeeper{Approved: false}, RoleFromFlags(false, true, false, true))
	assert.Equal(t, User{}, RoleFromFlags(false, false, true, false))

	for _, r := range []Role{Admin{CanGrantAdmin: true}, Admin{}, Shopkeeper{Approved: true}, Shopkeeper{}, User{}} {
		f := FlagsOf(r)
		assert.Equal(t, r, RoleFromFlags(f.IsAdmin, f.IsShopkeeper, f.ShopkeeperApproved, f.CanGrantAdmin))
	}
}

func TestCheckRegisterAsset(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		sub    bool
		owned  int
		reason dErrors.Reason
	}{
		{"user under quota", User{}, false, 2, ""},
		{"user at quota", User{}, false, 3, dErrors.ReasonQuotaExceeded},
		{"subscribed user unlimited", User{}, true, 300, ""},
		{"shopkeeper under quota", Shopkeeper{Approved: true}, false, 24, ""},
		{"shopkeeper at quota", Shopkeeper{Approved: true}, false, 25, dErrors.ReasonQuotaExceeded},
		{"subscribed shopkeeper unlimited", Shopkeeper{Approved: true}, true, 1000, ""},
		{"unapproved shopkeeper", Shopkeeper{}, false, 0, dErrors.ReasonPendingApproval},
		{"unapproved shopkeeper even when subscribed", Shopkeeper{}, true, 0, dErrors.ReasonPendingApproval},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Account{ID: id.NewAccountID(), Role: tc.role, HasSubscription: tc.sub}
			err := a.CheckRegisterAsset(tc.owned)
			if tc.reason == "" {
				assert.NoError(t, err)
				assert.True(t, a.CanRegisterAsset(tc.owned))
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeEligibilityDenied))
			assert.Equal(t, tc.reason, dErrors.ReasonOf(err))
		})
	}
}

func TestCheckInitiateSale(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("shopkeeper may sell immediately", func(t *testing.T) {
		a := &Account{Role: Shopkeeper{Approved: true}, CreatedAt: created}
		assert.True(t, a.CanInitiateSale(created))
	})

	t.Run("user waits three days", func(t *testing.T) {
		a := &Account{Role: User{}, CreatedAt: created}
		err := a.CheckInitiateSale(created.Add(71 * time.Hour))
		assert.Equal(t, dErrors.ReasonSaleCooldown, dErrors.ReasonOf(err))
		assert.True(t, a.CanInitiateSale(created.Add(72*time.Hour)))
	})
}

func TestEligibilityAt(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &Account{Role: User{}, CreatedAt: created}

	e := a.EligibilityAt(3, created.Add(time.Hour))
	require.NotNil(t, e.Quota)
	assert.Equal(t, RegularAssetQuota, *e.Quota)
	assert.False(t, e.CanRegister)
	assert.Equal(t, dErrors.ReasonQuotaExceeded, e.RegisterDenial)
	assert.False(t, e.CanInitiateSale)
	require.NotNil(t, e.SaleAvailableFrom)
	assert.Equal(t, created.Add(SaleCooldown), *e.SaleAvailableFrom)

	a.HasSubscription = true
	e = a.EligibilityAt(3, created.Add(SaleCooldown))
	assert.Nil(t, e.Quota)
	assert.True(t, e.CanRegister)
	assert.True(t, e.CanInitiateSale)
}

func TestAccountRoleChanges(t *testing.T) {
	sk := &Account{Role: Shopkeeper{}}
	require.NoError(t, sk.SetShopkeeperApproval(true))
	assert.False(t, sk.IsPendingShopkeeper())

	user := &Account{Role: User{}}
	assert.True(t, dErrors.HasCode(user.SetShopkeeperApproval(true), dErrors.CodeInvalidTransition))

	admin := &Account{Role: Admin{}}
	require.NoError(t, admin.ElevateToGrantAdmin())
	assert.True(t, admin.CanGrantAdmin())
	assert.True(t, dErrors.HasCode(admin.ElevateToGrantAdmin(), dErrors.CodeInvalidTransition))
}

func TestNewAccount(t *testing.T) {
	now := time.Now()
	_, err := NewAccount(id.NewAccountID(), "shop", "s@x.io", "1", "N1", "", Shopkeeper{}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	a, err := NewAccount(id.NewAccountID(), " alice ", "Alice@X.io", "1", "N1", "", User{}, now)
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Handle)
	assert.Equal(t, "alice@x.io", a.Email)
}
