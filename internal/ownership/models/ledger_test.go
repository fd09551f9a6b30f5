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

func account(role identity.Role) *identity.Account {
	return &identity.Account{ID: id.NewAccountID(), Role: role}
}

// chain builds a ledger moving the asset through owners in order.
func chain(asset id.AssetID, owners ...id.AccountID) Ledger {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var l Ledger
	for i := 1; i < len(owners); i++ {
		e := NewEntry(asset, owners[i-1], owners[i], nil, KindTransfer, base.Add(time.Duration(i)*time.Hour))
		e.Seq = int64(i)
		l = append(l, e)
	}
	return l
}

func TestOriginalOwner(t *testing.T) {
	asset := id.NewAssetID()
	a, b, c := id.NewAccountID(), id.NewAccountID(), id.NewAccountID()

	t.Run("no entries means current owner is original", func(t *testing.T) {
		assert.Equal(t, a, Ledger(nil).OriginalOwner(a))
	})

	t.Run("previous owner of the earliest entry", func(t *testing.T) {
		assert.Equal(t, a, chain(asset, a, b, c).OriginalOwner(c))
	})

	t.Run("earliest entry without previous owner falls back to its new owner", func(t *testing.T) {
		l := Ledger{{AssetID: asset, NewOwnerID: b, Kind: KindTransfer}}
		assert.Equal(t, b, l.OriginalOwner(c))
	})
}

func TestVisible(t *testing.T) {
	asset := id.NewAssetID()
	a, b := account(identity.User{}), account(identity.User{})
	c := account(identity.Shopkeeper{Approved: true})
	l := chain(asset, a.ID, b.ID, c.ID)

	t.Run("current owner sees everything newest first", func(t *testing.T) {
		got := l.Visible(c.ID, c)
		require.Len(t, got, 2)
		assert.Equal(t, c.ID, got[0].NewOwnerID)
		assert.Equal(t, b.ID, got[1].NewOwnerID)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		assert.Len(t, l.Visible(c.ID, account(identity.Admin{})), 2)
	})

	t.Run("participant sees only entries naming them", func(t *testing.T) {
		got := l.Visible(c.ID, a)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].NewOwnerID)
	})

	t.Run("stranger sees an empty history, not an error", func(t *testing.T) {
		got := l.Visible(c.ID, account(identity.User{}))
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestRecent(t *testing.T) {
	asset := id.NewAssetID()
	a, b, c, d := account(identity.User{}), account(identity.User{}), account(identity.User{}), account(identity.User{})
	l := chain(asset, a.ID, b.ID, c.ID, d.ID)

	t.Run("capped at two entries", func(t *testing.T) {
		got, err := l.Recent(d.ID, d)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, d.ID, got[0].NewOwnerID)
	})

	t.Run("previous owner in second-most-recent entry may view", func(t *testing.T) {
		_, err := l.Recent(d.ID, b)
		require.NoError(t, err)
	})

	t.Run("older participant is forbidden", func(t *testing.T) {
		_, err := l.Recent(d.ID, a)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("single entry ledger only allows owner and admin", func(t *testing.T) {
		short := chain(asset, a.ID, b.ID)
		_, err := short.Recent(b.ID, a)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		got, err := short.Recent(b.ID, account(identity.Admin{}))
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestHasDealTransfer(t *testing.T) {
	asset := id.NewAssetID()
	deal := id.NewDealID()
	l := Ledger{NewEntry(asset, id.NewAccountID(), id.NewAccountID(), &deal, KindSale, time.Now())}
	assert.True(t, l.HasDealTransfer(deal))
	assert.False(t, l.HasDealTransfer(id.NewDealID()))
}
