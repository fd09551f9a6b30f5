package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	asset "provenance/internal/asset/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
)

type assetStore struct{ s *Store }

const assetColumns = `a.id, a.name, a.serial, a.status, a.owner_id, a.category_id, a.brand_id, a.created_at, a.updated_at`

func scanAsset(row rowScanner) (*asset.Asset, error) {
	var a asset.Asset
	var rawID, owner, cat, brand uuid.UUID
	var status string
	if err := row.Scan(&rawID, &a.Name, &a.Serial, &status, &owner, &cat, &brand, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = id.AssetID(rawID)
	a.Status = asset.Status(status)
	a.OwnerID = id.AccountID(owner)
	a.CategoryID = id.CategoryID(cat)
	a.BrandID = id.BrandID(brand)
	return &a, nil
}

func (r assetStore) Create(ctx context.Context, a *asset.Asset) error {
	_, err := r.s.execer(ctx).ExecContext(ctx, `
		INSERT INTO assets (id, name, serial, status, owner_id, category_id, brand_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID.String(), a.Name, a.Serial, string(a.Status), a.OwnerID.String(),
		a.CategoryID.String(), a.BrandID.String(), a.CreatedAt, a.UpdatedAt)
	return translate(err, "create asset")
}

// Update writes the mutable columns. Serial and creation time never change.
func (r assetStore) Update(ctx context.Context, a *asset.Asset) error {
	res, err := r.s.execer(ctx).ExecContext(ctx, `
		UPDATE assets
		SET name = $2, status = $3, owner_id = $4, category_id = $5, brand_id = $6, updated_at = $7
		WHERE id = $1`,
		a.ID.String(), a.Name, string(a.Status), a.OwnerID.String(),
		a.CategoryID.String(), a.BrandID.String(), a.UpdatedAt)
	if err != nil {
		return translate(err, "update asset")
	}
	return mustAffect(res, "update asset")
}

func (r assetStore) FindByID(ctx context.Context, assetID id.AssetID) (*asset.Asset, error) {
	return r.findOne(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.id = $1`, assetID.String())
}

func (r assetStore) FindByIDForUpdate(ctx context.Context, assetID id.AssetID) (*asset.Asset, error) {
	return r.findOne(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.id = $1 FOR UPDATE`, assetID.String())
}

func (r assetStore) FindBySerial(ctx context.Context, serial string) (*asset.Asset, error) {
	return r.findOne(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.serial = $1`, serial)
}

func (r assetStore) FindBySerialForUpdate(ctx context.Context, serial string) (*asset.Asset, error) {
	return r.findOne(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.serial = $1 FOR UPDATE`, serial)
}

func (r assetStore) findOne(ctx context.Context, query string, args ...any) (*asset.Asset, error) {
	a, err := scanAsset(r.s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translate(err, "find asset")
	}
	return a, nil
}

func (r assetStore) CountByOwner(ctx context.Context, owner id.AccountID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM assets WHERE owner_id = $1`, owner.String())
}

func (r assetStore) CountByBrand(ctx context.Context, brand id.BrandID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM assets WHERE brand_id = $1`, brand.String())
}

func (r assetStore) count(ctx context.Context, query string, arg any) (int, error) {
	var n int
	if err := r.s.execer(ctx).QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, translate(err, "count assets")
	}
	return n, nil
}

func (r assetStore) ListByOwner(ctx context.Context, owner id.AccountID) ([]*asset.Asset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.owner_id = $1
		ORDER BY a.created_at DESC, a.serial`, owner.String())
}

func (r assetStore) ListByStatus(ctx context.Context, status asset.Status) ([]*asset.Asset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.status = $1
		ORDER BY a.created_at DESC, a.serial`, string(status))
}

func (r assetStore) Search(ctx context.Context, field storage.AssetField, value string) ([]*asset.Asset, error) {
	var query string
	switch field {
	case storage.AssetFieldSerial:
		query = `SELECT ` + assetColumns + ` FROM assets a WHERE a.serial = $1`
	case storage.AssetFieldOwnerHandle:
		query = `SELECT ` + assetColumns + ` FROM assets a JOIN accounts o ON o.id = a.owner_id WHERE o.handle = $1`
	case storage.AssetFieldOwnerPhone:
		query = `SELECT ` + assetColumns + ` FROM assets a JOIN accounts o ON o.id = a.owner_id WHERE o.phone = $1`
	default:
		return []*asset.Asset{}, nil
	}
	return r.list(ctx, query+` ORDER BY a.created_at DESC, a.serial`, value)
}

func (r assetStore) list(ctx context.Context, query string, args ...any) ([]*asset.Asset, error) {
	rows, err := r.s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list assets")
	}
	defer rows.Close()

	out := make([]*asset.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return out, nil
}

type statusHistoryStore struct{ s *Store }

func (r statusHistoryStore) Append(ctx context.Context, e *asset.StatusHistoryEntry) error {
	var prev any
	if e.PreviousStatus != nil {
		prev = string(*e.PreviousStatus)
	}
	err := r.s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO status_history (id, asset_id, previous_status, new_status, changed_at, changed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq`,
		e.ID.String(), e.AssetID.String(), prev, string(e.NewStatus), e.ChangedAt, nullID(e.ChangedBy)).
		Scan(&e.Seq)
	return translate(err, "append status history")
}

// AppendInitial relies on status_history_initial_key: a concurrent writer
// that loses the race inserts nothing and reports false.
func (r statusHistoryStore) AppendInitial(ctx context.Context, e *asset.StatusHistoryEntry) (bool, error) {
	err := r.s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO status_history (id, asset_id, previous_status, new_status, changed_at, changed_by)
		VALUES ($1, $2, NULL, $3, $4, $5)
		ON CONFLICT (asset_id) WHERE previous_status IS NULL DO NOTHING
		RETURNING seq`,
		e.ID.String(), e.AssetID.String(), string(e.NewStatus), e.ChangedAt, nullID(e.ChangedBy)).
		Scan(&e.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "append initial status")
	}
	return true, nil
}

func (r statusHistoryStore) ListByAsset(ctx context.Context, assetID id.AssetID) ([]asset.StatusHistoryEntry, error) {
	rows, err := r.s.execer(ctx).QueryContext(ctx, `
		SELECT seq, id, asset_id, previous_status, new_status, changed_at, changed_by
		FROM status_history
		WHERE asset_id = $1
		ORDER BY changed_at, seq`, assetID.String())
	if err != nil {
		return nil, translate(err, "list status history")
	}
	defer rows.Close()

	out := make([]asset.StatusHistoryEntry, 0)
	for rows.Next() {
		var (
			e         asset.StatusHistoryEntry
			rawAsset  uuid.UUID
			prev      sql.NullString
			newStatus string
			changedBy uuid.NullUUID
		)
		if err := rows.Scan(&e.Seq, &e.ID, &rawAsset, &prev, &newStatus, &e.ChangedAt, &changedBy); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		e.AssetID = id.AssetID(rawAsset)
		e.NewStatus = asset.Status(newStatus)
		if prev.Valid {
			p := asset.Status(prev.String)
			e.PreviousStatus = &p
		}
		e.ChangedBy = accountIDPtr(changedBy)
		out = append(out, e)
	}
	return out, rows.Err()
}
