package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	deal "provenance/internal/deal/models"
	id "provenance/pkg/domain"
)

type dealStore struct{ s *Store }

const dealColumns = `d.id, d.status, d.kind, d.buyer_id, d.seller_id,
	d.external_seller_name, d.external_seller_phone, d.external_seller_national_id, d.external_seller_address,
	d.total_amount, d.description, d.approved_by, d.approved_at, d.approval_notes, d.created_at, d.completed_at`

func scanDeal(row rowScanner) (*deal.Deal, error) {
	var (
		d                  deal.Deal
		rawID, buyer       uuid.UUID
		seller, approvedBy uuid.NullUUID
		status, kind       string
		extName, extPhone  sql.NullString
		extNID, extAddr    sql.NullString
		approvedAt, doneAt sql.NullTime
	)
	if err := row.Scan(&rawID, &status, &kind, &buyer, &seller,
		&extName, &extPhone, &extNID, &extAddr,
		&d.TotalAmount, &d.Description, &approvedBy, &approvedAt, &d.ApprovalNotes, &d.CreatedAt, &doneAt); err != nil {
		return nil, err
	}
	d.ID = id.DealID(rawID)
	d.Status = deal.Status(status)
	d.Kind = deal.Kind(kind)
	d.BuyerID = id.AccountID(buyer)
	d.SellerID = accountIDPtr(seller)
	if extName.Valid {
		d.ExternalSeller = &deal.ExternalSeller{
			Name:       extName.String,
			Phone:      extPhone.String,
			NationalID: extNID.String,
			Address:    extAddr.String,
		}
	}
	d.ApprovedBy = accountIDPtr(approvedBy)
	d.ApprovedAt = timePtr(approvedAt)
	d.CompletedAt = timePtr(doneAt)
	return &d, nil
}

func externalColumns(e *deal.ExternalSeller) (name, phone, nationalID, address any) {
	if e == nil {
		return nil, nil, nil, nil
	}
	return e.Name, e.Phone, e.NationalID, e.Address
}

func (r dealStore) Create(ctx context.Context, d *deal.Deal) error {
	exec := r.s.execer(ctx)
	name, phone, nid, addr := externalColumns(d.ExternalSeller)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO deals (id, status, kind, buyer_id, seller_id,
			external_seller_name, external_seller_phone, external_seller_national_id, external_seller_address,
			total_amount, description, approved_by, approved_at, approval_notes, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		d.ID.String(), string(d.Status), string(d.Kind), d.BuyerID.String(), nullID(d.SellerID),
		name, phone, nid, addr,
		d.TotalAmount, d.Description, nullID(d.ApprovedBy), nullTime(d.ApprovedAt), d.ApprovalNotes,
		d.CreatedAt, nullTime(d.CompletedAt))
	if err != nil {
		return translate(err, "create deal")
	}
	for i, item := range d.Items {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO deal_items (id, deal_id, asset_id, serial, price, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID.String(), d.ID.String(), item.AssetID.String(), item.Serial, item.Price, i)
		if err != nil {
			return translate(err, "create deal item")
		}
	}
	return nil
}

// Update writes lifecycle columns only. Items are immutable.
func (r dealStore) Update(ctx context.Context, d *deal.Deal) error {
	res, err := r.s.execer(ctx).ExecContext(ctx, `
		UPDATE deals
		SET status = $2, approved_by = $3, approved_at = $4, approval_notes = $5, completed_at = $6
		WHERE id = $1`,
		d.ID.String(), string(d.Status), nullID(d.ApprovedBy), nullTime(d.ApprovedAt), d.ApprovalNotes,
		nullTime(d.CompletedAt))
	if err != nil {
		return translate(err, "update deal")
	}
	return mustAffect(res, "update deal")
}

func (r dealStore) FindByID(ctx context.Context, dealID id.DealID) (*deal.Deal, error) {
	return r.findOne(ctx, `SELECT `+dealColumns+` FROM deals d WHERE d.id = $1`, dealID)
}

func (r dealStore) FindByIDForUpdate(ctx context.Context, dealID id.DealID) (*deal.Deal, error) {
	return r.findOne(ctx, `SELECT `+dealColumns+` FROM deals d WHERE d.id = $1 FOR UPDATE`, dealID)
}

func (r dealStore) findOne(ctx context.Context, query string, dealID id.DealID) (*deal.Deal, error) {
	d, err := scanDeal(r.s.execer(ctx).QueryRowContext(ctx, query, dealID.String()))
	if err != nil {
		return nil, translate(err, "find deal")
	}
	if err := r.attachItems(ctx, []*deal.Deal{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r dealStore) ListByParticipant(ctx context.Context, account id.AccountID) ([]*deal.Deal, error) {
	return r.list(ctx, `SELECT `+dealColumns+` FROM deals d
		WHERE d.buyer_id = $1 OR d.seller_id = $1
		ORDER BY d.created_at DESC, d.id`, account.String())
}

func (r dealStore) ListByStatus(ctx context.Context, status deal.Status) ([]*deal.Deal, error) {
	return r.list(ctx, `SELECT `+dealColumns+` FROM deals d
		WHERE d.status = $1
		ORDER BY d.created_at DESC, d.id`, string(status))
}

func (r dealStore) Search(ctx context.Context, query string) ([]*deal.Deal, error) {
	return r.list(ctx, `SELECT `+dealColumns+` FROM deals d
		JOIN accounts b ON b.id = d.buyer_id
		LEFT JOIN accounts s ON s.id = d.seller_id
		WHERE b.handle ILIKE $1
			OR b.phone ILIKE $1
			OR s.handle ILIKE $1
			OR d.external_seller_name ILIKE $1
			OR d.external_seller_phone ILIKE $1
			OR EXISTS (SELECT 1 FROM deal_items i WHERE i.deal_id = d.id AND i.serial ILIKE $1)
		ORDER BY d.created_at DESC, d.id`, likePattern(query))
}

func (r dealStore) list(ctx context.Context, query string, args ...any) ([]*deal.Deal, error) {
	rows, err := r.s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list deals")
	}
	defer rows.Close()

	out := make([]*deal.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deals: %w", err)
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the items of every deal in one query.
func (r dealStore) attachItems(ctx context.Context, deals []*deal.Deal) error {
	if len(deals) == 0 {
		return nil
	}
	byID := make(map[id.DealID]*deal.Deal, len(deals))
	ids := make([]string, 0, len(deals))
	for _, d := range deals {
		byID[d.ID] = d
		d.Items = make([]deal.Item, 0)
		ids = append(ids, d.ID.String())
	}

	rows, err := r.s.execer(ctx).QueryContext(ctx, `
		SELECT id, deal_id, asset_id, serial, price
		FROM deal_items
		WHERE deal_id = ANY($1::uuid[])
		ORDER BY deal_id, position`, pq.Array(ids))
	if err != nil {
		return translate(err, "list deal items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item          deal.Item
			dealID, asset uuid.UUID
		)
		if err := rows.Scan(&item.ID, &dealID, &asset, &item.Serial, &item.Price); err != nil {
			return fmt.Errorf("scan deal item: %w", err)
		}
		item.AssetID = id.AssetID(asset)
		if d, ok := byID[id.DealID(dealID)]; ok {
			d.Items = append(d.Items, item)
		}
	}
	return rows.Err()
}
