package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	identity "provenance/internal/identity/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
)

type accountStore struct{ s *Store }

const accountColumns = `id, handle, email, phone, national_id, shop_name,
	is_admin, is_shopkeeper, shopkeeper_approved, can_grant_admin, has_subscription, created_at`

func scanAccount(row rowScanner) (*identity.Account, error) {
	var (
		a       identity.Account
		rawID   uuid.UUID
		isAdmin bool
		isShop  bool
		okShop  bool
		canGive bool
	)
	if err := row.Scan(&rawID, &a.Handle, &a.Email, &a.Phone, &a.NationalID, &a.ShopName,
		&isAdmin, &isShop, &okShop, &canGive, &a.HasSubscription, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = id.AccountID(rawID)
	a.Role = identity.RoleFromFlags(isAdmin, isShop, okShop, canGive)
	return &a, nil
}

func (r accountStore) Create(ctx context.Context, a *identity.Account) error {
	f := identity.FlagsOf(a.Role)
	_, err := r.s.execer(ctx).ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID.String(), a.Handle, a.Email, a.Phone, a.NationalID, a.ShopName,
		f.IsAdmin, f.IsShopkeeper, f.ShopkeeperApproved, f.CanGrantAdmin, a.HasSubscription, a.CreatedAt)
	return translate(err, "create account")
}

func (r accountStore) Update(ctx context.Context, a *identity.Account) error {
	f := identity.FlagsOf(a.Role)
	res, err := r.s.execer(ctx).ExecContext(ctx, `
		UPDATE accounts
		SET handle = $2, email = $3, phone = $4, national_id = $5, shop_name = $6,
			is_admin = $7, is_shopkeeper = $8, shopkeeper_approved = $9, can_grant_admin = $10,
			has_subscription = $11
		WHERE id = $1`,
		a.ID.String(), a.Handle, a.Email, a.Phone, a.NationalID, a.ShopName,
		f.IsAdmin, f.IsShopkeeper, f.ShopkeeperApproved, f.CanGrantAdmin, a.HasSubscription)
	if err != nil {
		return translate(err, "update account")
	}
	return mustAffect(res, "update account")
}

func (r accountStore) FindByID(ctx context.Context, accountID id.AccountID) (*identity.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID.String())
}

func (r accountStore) FindByIDForUpdate(ctx context.Context, accountID id.AccountID) (*identity.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, accountID.String())
}

func (r accountStore) FindByHandle(ctx context.Context, handle string) (*identity.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE handle = $1`, handle)
}

func (r accountStore) findOne(ctx context.Context, query string, args ...any) (*identity.Account, error) {
	a, err := scanAccount(r.s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translate(err, "find account")
	}
	return a, nil
}

func (r accountStore) List(ctx context.Context, filter storage.AccountFilter) ([]*identity.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE TRUE`
	var args []any
	if filter.Text != "" {
		args = append(args, likePattern(filter.Text))
		query += fmt.Sprintf(` AND (handle ILIKE $%[1]d OR email ILIKE $%[1]d OR phone ILIKE $%[1]d)`, len(args))
	}
	switch filter.Role {
	case identity.RoleAdmin:
		query += ` AND is_admin`
	case identity.RoleShopkeeper:
		query += ` AND is_shopkeeper AND NOT is_admin`
	case identity.RoleUser:
		query += ` AND NOT is_admin AND NOT is_shopkeeper`
	}
	if filter.PendingOnly {
		query += ` AND is_shopkeeper AND NOT is_admin AND NOT shopkeeper_approved`
	}
	query += ` ORDER BY handle`
	return r.list(ctx, query, args...)
}

func (r accountStore) Search(ctx context.Context, field storage.AccountField, value string) ([]*identity.Account, error) {
	var where string
	arg := any(value)
	switch field {
	case storage.AccountFieldHandle:
		where = `handle = $1`
	case storage.AccountFieldPhone:
		where = `phone = $1`
	case storage.AccountFieldNationalID:
		where = `national_id = $1`
	case storage.AccountFieldShopName:
		where = `shop_name <> '' AND shop_name ILIKE $1`
		arg = likePattern(value)
	default:
		return []*identity.Account{}, nil
	}
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where+` ORDER BY handle`, arg)
}

func (r accountStore) list(ctx context.Context, query string, args ...any) ([]*identity.Account, error) {
	rows, err := r.s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list accounts")
	}
	defer rows.Close()

	out := make([]*identity.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}
