package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	ownership "provenance/internal/ownership/models"
	id "provenance/pkg/domain"
)

type ownershipStore struct{ s *Store }

func (r ownershipStore) Append(ctx context.Context, e *ownership.Entry) error {
	err := r.s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO ownership_history (id, asset_id, previous_owner_id, new_owner_id, deal_id, kind, transferred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`,
		e.ID.String(), e.AssetID.String(), nullID(e.PreviousOwnerID), e.NewOwnerID.String(),
		nullID(e.DealID), string(e.Kind), e.TransferredAt).
		Scan(&e.Seq)
	return translate(err, "append ownership history")
}

func (r ownershipStore) ListByAsset(ctx context.Context, assetID id.AssetID) (ownership.Ledger, error) {
	rows, err := r.s.execer(ctx).QueryContext(ctx, `
		SELECT seq, id, asset_id, previous_owner_id, new_owner_id, deal_id, kind, transferred_at
		FROM ownership_history
		WHERE asset_id = $1
		ORDER BY transferred_at, seq`, assetID.String())
	if err != nil {
		return nil, translate(err, "list ownership history")
	}
	defer rows.Close()

	ledger := make(ownership.Ledger, 0)
	for rows.Next() {
		var (
			e        ownership.Entry
			rawAsset uuid.UUID
			prev     uuid.NullUUID
			next     uuid.UUID
			deal     uuid.NullUUID
			kind     string
		)
		if err := rows.Scan(&e.Seq, &e.ID, &rawAsset, &prev, &next, &deal, &kind, &e.TransferredAt); err != nil {
			return nil, fmt.Errorf("scan ownership history: %w", err)
		}
		e.AssetID = id.AssetID(rawAsset)
		e.PreviousOwnerID = accountIDPtr(prev)
		e.NewOwnerID = id.AccountID(next)
		if deal.Valid {
			d := id.DealID(deal.UUID)
			e.DealID = &d
		}
		e.Kind = ownership.TransferKind(kind)
		ledger = append(ledger, e)
	}
	return ledger, rows.Err()
}
