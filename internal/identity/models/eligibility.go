package models

import (
	"fmt"
	"time"

	dErrors "provenance/pkg/domain-errors"
)

const (
	// RegularAssetQuota is the free asset allowance of a regular user.
	RegularAssetQuota = 3
	// ShopkeeperAssetQuota is the free asset allowance of a shopkeeper.
	ShopkeeperAssetQuota = 25
	// SaleCooldown is how long a regular user waits after account creation
	// before initiating sales. The same holding period applies per asset.
	SaleCooldown = 72 * time.Hour
)

// AssetQuota returns the asset limit for the account and whether one applies.
// Subscribed accounts are unlimited. The limit gates registration only; assets
// received through a deal may take an account past it.
func (a *Account) AssetQuota() (int, bool) {
	if a.HasSubscription {
		return 0, false
	}
	if a.IsShopkeeper() {
		return ShopkeeperAssetQuota, true
	}
	return RegularAssetQuota, true
}

// CheckRegisterAsset returns nil when the account may register one more asset
// given the number it currently owns, or an EligibilityDenied error naming why not.
func (a *Account) CheckRegisterAsset(owned int) error {
	if a.IsPendingShopkeeper() {
		return dErrors.Denied(dErrors.ReasonPendingApproval,
			"shopkeeper account is pending administrator approval")
	}
	limit, limited := a.AssetQuota()
	if limited && owned >= limit {
		kind := "regular user"
		if a.IsShopkeeper() {
			kind = "shopkeeper"
		}
		return dErrors.Denied(dErrors.ReasonQuotaExceeded,
			fmt.Sprintf("reached the limit of %d free assets for a %s; subscribe to register more", limit, kind))
	}
	return nil
}

func (a *Account) CanRegisterAsset(owned int) bool {
	return a.CheckRegisterAsset(owned) == nil
}

// CheckInitiateSale applies the sale cooldown: shopkeepers may sell at once,
// regular users only after SaleCooldown has elapsed since account creation.
func (a *Account) CheckInitiateSale(now time.Time) error {
	if a.IsShopkeeper() {
		return nil
	}
	if now.Sub(a.CreatedAt) < SaleCooldown {
		return dErrors.Denied(dErrors.ReasonSaleCooldown,
			"new accounts must wait 3 days before initiating a sale")
	}
	return nil
}

func (a *Account) CanInitiateSale(now time.Time) bool {
	return a.CheckInitiateSale(now) == nil
}

// Eligibility is a computed snapshot of what an account may currently do.
type Eligibility struct {
	Owned             int
	Quota             *int
	CanRegister       bool
	RegisterDenial    dErrors.Reason
	CanInitiateSale   bool
	SaleDenial        dErrors.Reason
	SaleAvailableFrom *time.Time
}

// EligibilityAt builds the snapshot for an account owning owned assets.
func (a *Account) EligibilityAt(owned int, now time.Time) Eligibility {
	e := Eligibility{Owned: owned}
	if limit, limited := a.AssetQuota(); limited {
		e.Quota = &limit
	}
	if err := a.CheckRegisterAsset(owned); err != nil {
		e.RegisterDenial = dErrors.ReasonOf(err)
	} else {
		e.CanRegister = true
	}
	if err := a.CheckInitiateSale(now); err != nil {
		e.SaleDenial = dErrors.ReasonOf(err)
		from := a.CreatedAt.Add(SaleCooldown)
		e.SaleAvailableFrom = &from
	} else {
		e.CanInitiateSale = true
	}
	return e
}
