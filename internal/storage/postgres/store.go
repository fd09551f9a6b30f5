// Package postgres implements the storage contract on PostgreSQL through
// database/sql and lib/pq.
//
// RunInTx opens a *sql.Tx and carries it in the context (pkg/platform/tx);
// every repository method resolves its executor from the context, so the same
// Store value serves transactional and plain reads. Uniqueness (serials,
// account identity fields, one initial status entry per asset, one ownership
// entry per deal and asset) is enforced by constraints rather than pre-checks.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	txcontext "provenance/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const defaultTxTimeout = 5 * time.Second

// Store implements storage.Tx and storage.Stores.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTxTimeout bounds transactions started without a deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects and verifies the database.
func Open(ctx context.Context, url string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the idempotent schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, stores storage.Stores) error) error {
	return s.run(ctx, nil, fn)
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, stores storage.Stores) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, stores storage.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.Bind(ctx, tx), s); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "commit timed out")
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) Accounts() storage.AccountStore           { return accountStore{s} }
func (s *Store) Catalog() storage.CatalogStore             { return catalogStore{s} }
func (s *Store) Assets() storage.AssetStore                { return assetStore{s} }
func (s *Store) StatusHistory() storage.StatusHistoryStore { return statusHistoryStore{s} }
func (s *Store) Ownership() storage.OwnershipStore         { return ownershipStore{s} }
func (s *Store) Deals() storage.DealStore                  { return dealStore{s} }

func (s *Store) execer(ctx context.Context) txcontext.Executor {
	return txcontext.Pick(ctx, s.db)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// constraintFields maps unique constraint names to the field they protect.
var constraintFields = map[string]string{
	"accounts_pkey":                    "id",
	"accounts_handle_key":              "handle",
	"accounts_email_key":               "email",
	"accounts_phone_key":               "phone",
	"accounts_national_id_key":         "national_id",
	"categories_name_key":              "category name",
	"brands_name_key":                  "brand name",
	"assets_pkey":                      "id",
	"assets_serial_key":                "serial",
	"status_history_initial_key":       "initial status entry",
	"ownership_history_deal_asset_key": "deal transfer",
	"deals_pkey":                       "id",
	"deal_items_deal_asset_key":        "deal item",
}

// translate maps driver errors onto storage sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			field, ok := constraintFields[pqErr.Constraint]
			if !ok {
				field = pqErr.Constraint
			}
			return storage.Unique(field)
		case "23503":
			return fmt.Errorf("%s: %w: %s", op, sentinel.ErrInvalidState, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mustAffect(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullID[T ~[16]byte](p *T) any {
	if p == nil {
		return nil
	}
	return uuid.UUID(*p).String()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func accountIDPtr(n uuid.NullUUID) *id.AccountID {
	if !n.Valid {
		return nil
	}
	v := id.AccountID(n.UUID)
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// likePattern escapes LIKE metacharacters and wraps value for substring match.
func likePattern(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(value) + "%"
}
