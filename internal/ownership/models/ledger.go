package models

import (
	"time"

	"github.com/google/uuid"

	identity "provenance/internal/identity/models"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// TransferKind says why ownership moved. There is no initial_registration
// kind: registering an asset writes no ledger entry, and the registrant is
// the current owner until the first entry exists.
type TransferKind string

const (
	KindSale     TransferKind = "sale"
	KindTransfer TransferKind = "transfer"
)

// RecentWindow is how many entries the restricted view exposes.
const RecentWindow = 2

// Entry is one append-only ownership change. PreviousOwnerID is nil only for
// entries that describe an initial assignment.
type Entry struct {
	ID              uuid.UUID
	Seq             int64
	AssetID         id.AssetID
	PreviousOwnerID *id.AccountID
	NewOwnerID      id.AccountID
	DealID          *id.DealID
	Kind            TransferKind
	TransferredAt   time.Time
}

// NewEntry builds the ledger entry for moving asset from previous to next.
func NewEntry(asset id.AssetID, previous, next id.AccountID, deal *id.DealID, kind TransferKind, now time.Time) Entry {
	prev := previous
	return Entry{
		ID:              uuid.New(),
		AssetID:         asset,
		PreviousOwnerID: &prev,
		NewOwnerID:      next,
		DealID:          deal,
		Kind:            kind,
		TransferredAt:   now,
	}
}

// Involves reports whether account appears on either side of the entry.
func (e Entry) Involves(account id.AccountID) bool {
	if e.NewOwnerID == account {
		return true
	}
	return e.PreviousOwnerID != nil && *e.PreviousOwnerID == account
}

// Ledger is the chronological ownership history of one asset. The current
// owner lives on the asset; the ledger is the record of how it got there.
type Ledger []Entry

// OriginalOwner returns the previous owner of the earliest entry, or current
// when the asset has never changed hands.
func (l Ledger) OriginalOwner(current id.AccountID) id.AccountID {
	if len(l) == 0 {
		return current
	}
	first := l[0]
	if first.PreviousOwnerID != nil {
		return *first.PreviousOwnerID
	}
	return first.NewOwnerID
}

// HasDealTransfer reports whether the deal already moved the asset.
func (l Ledger) HasDealTransfer(deal id.DealID) bool {
	for _, e := range l {
		if e.DealID != nil && *e.DealID == deal {
			return true
		}
	}
	return false
}

// NewestFirst returns a reversed copy.
func (l Ledger) NewestFirst() []Entry {
	out := make([]Entry, len(l))
	for i, e := range l {
		out[len(l)-1-i] = e
	}
	return out
}

// Visible returns the entries requester may see: everything for an admin or
// the current owner, only the entries naming requester for past participants,
// and nothing for anyone else. Results are newest first.
func (l Ledger) Visible(currentOwner id.AccountID, requester *identity.Account) []Entry {
	if requester.IsAdmin() || requester.ID == currentOwner {
		return l.NewestFirst()
	}
	out := make([]Entry, 0)
	for _, e := range l.NewestFirst() {
		if e.Involves(requester.ID) {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns at most the RecentWindow newest entries. Access is limited to
// admins, the current owner, and the previous owner recorded in the
// second-most-recent entry.
func (l Ledger) Recent(currentOwner id.AccountID, requester *identity.Account) ([]Entry, error) {
	newest := l.NewestFirst()
	allowed := requester.IsAdmin() || requester.ID == currentOwner
	if !allowed && len(newest) >= RecentWindow {
		if prev := newest[RecentWindow-1].PreviousOwnerID; prev != nil && *prev == requester.ID {
			allowed = true
		}
	}
	if !allowed {
		return nil, dErrors.New(dErrors.CodeForbidden, "not permitted to view recent ownership history")
	}
	if len(newest) > RecentWindow {
		newest = newest[:RecentWindow]
	}
	return newest, nil
}
