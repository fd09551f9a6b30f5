// Package service exposes the ownership ledger with per-requester visibility
// and provides the single write path that moves an asset to a new owner.
package service

import (
	"context"
	"errors"
	"time"

	asset "provenance/internal/asset/models"
	accounts "provenance/internal/identity/models"
	identity "provenance/internal/identity/service"
	"provenance/internal/ownership/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
)

// RecordTransfer appends the ledger entry for moving a to newOwner and updates
// the asset, both through the caller's transaction. A duplicate (deal, asset)
// entry surfaces as Conflict.
func RecordTransfer(ctx context.Context, st storage.Stores, a *asset.Asset, newOwner id.AccountID, dealID *id.DealID, kind models.TransferKind, now time.Time) (*models.Entry, error) {
	if a.OwnerID == newOwner {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "asset "+a.Serial+" is already owned by the recipient")
	}
	entry := models.NewEntry(a.ID, a.OwnerID, newOwner, dealID, kind, now)
	if err := st.Ownership().Append(ctx, &entry); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "ownership of "+a.Serial+" already moved for this deal")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append ownership entry")
	}
	a.TransferTo(newOwner, now)
	if err := st.Assets().Update(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset owner")
	}
	return &entry, nil
}

// Ledger loads the chronological ownership history of an asset.
func Ledger(ctx context.Context, st storage.Stores, assetID id.AssetID) (models.Ledger, error) {
	ledger, err := st.Ownership().ListByAsset(ctx, assetID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ownership history")
	}
	return ledger, nil
}

// Service answers ownership history queries.
type Service struct {
	tx storage.Tx
}

func New(tx storage.Tx) *Service {
	return &Service{tx: tx}
}

// History returns the entries requester may see, newest first. Requesters with
// no connection to the asset get an empty list, not an error.
func (s *Service) History(ctx context.Context, requesterID id.AccountID, assetID id.AssetID) ([]models.Entry, error) {
	var entries []models.Entry
	err := s.view(ctx, requesterID, assetID, func(ledger models.Ledger, owner id.AccountID, requester *accounts.Account) error {
		entries = ledger.Visible(owner, requester)
		return nil
	})
	return entries, err
}

// Recent returns at most the two newest entries to the admin, the current
// owner, or the previous owner named by the second-newest entry.
func (s *Service) Recent(ctx context.Context, requesterID id.AccountID, assetID id.AssetID) ([]models.Entry, error) {
	var entries []models.Entry
	err := s.view(ctx, requesterID, assetID, func(ledger models.Ledger, owner id.AccountID, requester *accounts.Account) error {
		var err error
		entries, err = ledger.Recent(owner, requester)
		return err
	})
	return entries, err
}

// OriginalOwner returns the first owner recorded for the asset.
func (s *Service) OriginalOwner(ctx context.Context, assetID id.AssetID) (id.AccountID, error) {
	var original id.AccountID
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		a, err := findAsset(ctx, st, assetID)
		if err != nil {
			return err
		}
		ledger, err := Ledger(ctx, st, assetID)
		if err != nil {
			return err
		}
		original = ledger.OriginalOwner(a.OwnerID)
		return nil
	})
	return original, err
}

func (s *Service) view(ctx context.Context, requesterID id.AccountID, assetID id.AssetID, fn func(models.Ledger, id.AccountID, *accounts.Account) error) error {
	return s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		requester, err := identity.Actor(ctx, st, requesterID)
		if err != nil {
			return err
		}
		a, err := findAsset(ctx, st, assetID)
		if err != nil {
			return err
		}
		ledger, err := Ledger(ctx, st, assetID)
		if err != nil {
			return err
		}
		return fn(ledger, a.OwnerID, requester)
	})
}

func findAsset(ctx context.Context, st storage.Stores, assetID id.AssetID) (*asset.Asset, error) {
	a, err := st.Assets().FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset")
	}
	return a, nil
}
