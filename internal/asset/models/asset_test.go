package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "provenance/internal/identity/models"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

var created = time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)

func newAsset(t *testing.T, owner id.AccountID) *Asset {
	t.Helper()
	a, err := NewAsset(id.NewAssetID(), "Phone", "SN001", owner, id.NewCategoryID(), id.NewBrandID(), created)
	require.NoError(t, err)
	return a
}

func TestNewAsset(t *testing.T) {
	a := newAsset(t, id.NewAccountID())
	assert.Equal(t, StatusForSale, a.Status)

	_, err := NewAsset(id.NewAssetID(), "Phone", "  ", id.NewAccountID(), id.NewCategoryID(), id.NewBrandID(), created)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCheckSaleable(t *testing.T) {
	user := &identity.Account{ID: id.NewAccountID(), Role: identity.User{}}
	shop := &identity.Account{ID: id.NewAccountID(), Role: identity.Shopkeeper{Approved: true}}

	t.Run("shopkeeper owner sells immediately", func(t *testing.T) {
		a := newAsset(t, shop.ID)
		assert.True(t, a.CanBeSold(shop, created))
	})

	t.Run("user owner waits out the holding period", func(t *testing.T) {
		a := newAsset(t, user.ID)
		err := a.CheckSaleable(user, created.Add(48*time.Hour))
		assert.Equal(t, dErrors.ReasonHoldingPeriod, dErrors.ReasonOf(err))
		assert.True(t, a.CanBeSold(user, created.Add(72*time.Hour)))
	})

	t.Run("restricted statuses are never saleable", func(t *testing.T) {
		a := newAsset(t, shop.ID)
		a.Status = StatusLocked
		assert.Equal(t, dErrors.ReasonRestricted, dErrors.ReasonOf(a.CheckSaleable(shop, created)))
		assert.Error(t, a.CheckTransferable())
	})
}

func TestCheckStatusChange(t *testing.T) {
	original := &identity.Account{ID: id.NewAccountID(), Role: identity.User{}}
	current := &identity.Account{ID: id.NewAccountID(), Role: identity.User{}}
	admin := &identity.Account{ID: id.NewAccountID(), Role: identity.Admin{}}
	stranger := &identity.Account{ID: id.NewAccountID(), Role: identity.User{}}

	at := func(status Status) *Asset {
		a := newAsset(t, current.ID)
		a.Status = status
		return a
	}

	cases := []struct {
		name   string
		asset  *Asset
		actor  *identity.Account
		target Status
		code   dErrors.Code
	}{
		{"owner locks", at(StatusForSale), current, StatusLocked, ""},
		{"owner unlocks", at(StatusLocked), current, StatusForSale, ""},
		{"admin locks", at(StatusForSale), admin, StatusLocked, ""},
		{"admin marks stolen", at(StatusLocked), admin, StatusStolen, ""},
		{"admin cannot unlock for sale", at(StatusLocked), admin, StatusForSale, dErrors.CodeInvalidTransition},
		{"stranger forbidden", at(StatusForSale), stranger, StatusLocked, dErrors.CodeForbidden},
		{"same status", at(StatusLocked), current, StatusLocked, dErrors.CodeInvalidTransition},
		{"current owner cannot clear stolen", at(StatusStolen), current, StatusForSale, dErrors.CodeInvalidTransition},
		{"admin cannot clear stolen", at(StatusStolen), admin, StatusLocked, dErrors.CodeInvalidTransition},
		{"original owner clears stolen", at(StatusStolen), original, StatusForSale, ""},
		{"unknown status", at(StatusForSale), current, Status("broken"), dErrors.CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.asset.CheckStatusChange(tc.actor, original.ID, tc.target)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestApplyStatus(t *testing.T) {
	owner := id.NewAccountID()
	a := newAsset(t, owner)
	later := created.Add(time.Hour)

	entry := a.ApplyStatus(StatusLocked, owner, later)
	assert.Equal(t, StatusLocked, a.Status)
	assert.Equal(t, later, a.UpdatedAt)
	require.NotNil(t, entry.PreviousStatus)
	assert.Equal(t, StatusForSale, *entry.PreviousStatus)
	assert.False(t, entry.IsInitial())

	initial := InitialEntry(a, []StatusHistoryEntry{entry}, &owner)
	assert.True(t, initial.IsInitial())
	assert.Equal(t, created, initial.ChangedAt)
	assert.Equal(t, StatusForSale, initial.NewStatus)
	assert.True(t, HasInitial([]StatusHistoryEntry{entry, initial}))
}
