package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	identity "provenance/internal/identity/models"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// Status is the lifecycle state of an asset.
type Status string

const (
	StatusForSale Status = "for_sale"
	StatusLocked  Status = "locked"
	StatusStolen  Status = "stolen"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusForSale, StatusLocked, StatusStolen:
		return true
	}
	return false
}

// IsRestricted reports statuses that block every kind of deal.
func (s Status) IsRestricted() bool {
	return s == StatusLocked || s == StatusStolen
}

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown asset status: "+s)
	}
	return st, nil
}

// Asset is a uniquely serialised physical item.
//
// Invariants:
//   - Serial is non-empty and globally unique (enforced by the store)
//   - OwnerID always references an existing account
//   - Status is one of for_sale, locked, stolen
type Asset struct {
	ID         id.AssetID
	Name       string
	Serial     string
	Status     Status
	OwnerID    id.AccountID
	CategoryID id.CategoryID
	BrandID    id.BrandID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewAsset builds a freshly registered asset. New assets start in for_sale.
func NewAsset(assetID id.AssetID, name, serial string, owner id.AccountID, category id.CategoryID, brand id.BrandID, now time.Time) (*Asset, error) {
	name = strings.TrimSpace(name)
	serial = strings.TrimSpace(serial)
	switch {
	case name == "":
		return nil, dErrors.New(dErrors.CodeValidation, "asset name is required")
	case len(name) > 100:
		return nil, dErrors.New(dErrors.CodeValidation, "asset name must be 100 characters or less")
	case serial == "":
		return nil, dErrors.New(dErrors.CodeValidation, "serial number is required")
	case len(serial) > 100:
		return nil, dErrors.New(dErrors.CodeValidation, "serial number must be 100 characters or less")
	case owner.IsNil():
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	case category.IsNil():
		return nil, dErrors.New(dErrors.CodeValidation, "category is required")
	case brand.IsNil():
		return nil, dErrors.New(dErrors.CodeValidation, "brand is required")
	}
	return &Asset{
		ID:         assetID,
		Name:       name,
		Serial:     serial,
		Status:     StatusForSale,
		OwnerID:    owner,
		CategoryID: category,
		BrandID:    brand,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CheckSaleable returns nil when the asset can be put into a sale deal. The
// asset must be for_sale and, unless the owner is a shopkeeper, must have been
// held for the full holding period.
func (a *Asset) CheckSaleable(owner *identity.Account, now time.Time) error {
	if a.Status != StatusForSale {
		if a.Status.IsRestricted() {
			return dErrors.Denied(dErrors.ReasonRestricted, "asset "+a.Serial+" is "+string(a.Status))
		}
		return dErrors.Denied(dErrors.ReasonNotForSale, "asset "+a.Serial+" is not for sale")
	}
	if owner != nil && owner.IsShopkeeper() {
		return nil
	}
	if now.Sub(a.CreatedAt) < identity.SaleCooldown {
		return dErrors.Denied(dErrors.ReasonHoldingPeriod,
			"asset "+a.Serial+" must be held for 3 days before it can be sold")
	}
	return nil
}

func (a *Asset) CanBeSold(owner *identity.Account, now time.Time) bool {
	return a.CheckSaleable(owner, now) == nil
}

// CheckTransferable returns nil when the asset can be moved in a transfer deal.
func (a *Asset) CheckTransferable() error {
	if a.Status.IsRestricted() {
		return dErrors.Denied(dErrors.ReasonRestricted, "asset "+a.Serial+" is "+string(a.Status))
	}
	return nil
}

// CheckStatusChange authorizes actor moving the asset to target.
//
// originalOwner is the first owner recorded in the ownership ledger. Leaving
// stolen requires that account specifically, whoever owns the asset now.
// Otherwise the current owner or an administrator may change the status, but
// administrators may never unlock straight to for_sale. Rule violations by an
// otherwise permitted actor are InvalidTransition; strangers are Forbidden.
func (a *Asset) CheckStatusChange(actor *identity.Account, originalOwner id.AccountID, target Status) error {
	if !target.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown asset status: "+string(target))
	}
	if target == a.Status {
		return dErrors.New(dErrors.CodeInvalidTransition, "asset is already "+string(target))
	}
	if a.Status == StatusStolen {
		if actor.ID != originalOwner {
			return dErrors.New(dErrors.CodeInvalidTransition, "only the original owner can change the status of a stolen asset")
		}
		return nil
	}
	if actor.ID != a.OwnerID && !actor.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "only the owner or an administrator can change the asset status")
	}
	if actor.IsAdmin() && a.Status == StatusLocked && target == StatusForSale {
		return dErrors.New(dErrors.CodeInvalidTransition, "only the owner can reverse a lock")
	}
	return nil
}

// ApplyStatus sets the status and returns the history entry describing the change.
func (a *Asset) ApplyStatus(target Status, by id.AccountID, now time.Time) StatusHistoryEntry {
	prev := a.Status
	a.Status = target
	a.UpdatedAt = now
	changedBy := by
	return StatusHistoryEntry{
		ID:             uuid.New(),
		AssetID:        a.ID,
		PreviousStatus: &prev,
		NewStatus:      target,
		ChangedAt:      now,
		ChangedBy:      &changedBy,
	}
}

// TransferTo moves ownership. Callers record the ledger entry.
func (a *Asset) TransferTo(owner id.AccountID, now time.Time) {
	a.OwnerID = owner
	a.UpdatedAt = now
}
