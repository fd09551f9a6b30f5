// Package service implements the asset registry and its status history ledger.
//
// Every status change appends a history entry and mutates the asset inside one
// storage transaction. The creation entry of an asset is written at
// registration and synthesized lazily for assets that predate it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"provenance/internal/asset/cache"
	"provenance/internal/asset/metrics"
	"provenance/internal/asset/models"
	"provenance/internal/audit"
	identity "provenance/internal/identity/service"
	ownership "provenance/internal/ownership/service"
	"provenance/internal/platform/tracing"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

var tracer = otel.Tracer("provenance/internal/asset/service")

// Service manages registered assets and their status history.
type Service struct {
	tx        storage.Tx
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cache     *cache.Cache
	publisher audit.Publisher
	auditor   *audit.Emitter
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache serves Verify through c and invalidates it on every write.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func New(tx storage.Tx, opts ...Option) *Service {
	s := &Service{tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.auditor = audit.NewEmitter(s.publisher, s.logger)
	return s
}

type RegisterCommand struct {
	Name       string
	Serial     string
	CategoryID id.CategoryID
	BrandID    id.BrandID
}

// Register creates an asset owned by the actor together with its creation
// history entry. The owner row is locked while the quota is checked so two
// concurrent registrations cannot both pass a count of quota-1.
func (s *Service) Register(ctx context.Context, actorID id.AccountID, cmd RegisterCommand) (a *models.Asset, err error) {
	ctx, span := tracer.Start(ctx, "asset.Register", trace.WithAttributes(
		attribute.String("serial", cmd.Serial),
	))
	defer func() { tracing.End(span, err) }()

	now := requestcontext.Now(ctx)
	a, err = models.NewAsset(id.NewAssetID(), cmd.Name, cmd.Serial, actorID, cmd.CategoryID, cmd.BrandID, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		if actorID.IsNil() {
			return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
		}
		owner, err := st.Accounts().FindByIDForUpdate(ctx, actorID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeUnauthorized, "unknown account")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock owner")
		}
		if owner.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "administrators cannot register assets")
		}
		if err := checkCatalog(ctx, st, cmd.CategoryID, cmd.BrandID); err != nil {
			return err
		}
		owned, err := st.Assets().CountByOwner(ctx, owner.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count owned assets")
		}
		if err := owner.CheckRegisterAsset(owned); err != nil {
			return err
		}
		if err := st.Assets().Create(ctx, a); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "serial "+a.Serial+" is already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create asset")
		}
		entry := models.InitialEntry(a, nil, &owner.ID)
		if _, err := st.StatusHistory().AppendInitial(ctx, &entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record initial status")
		}
		return nil
	})
	if err != nil {
		if reason := dErrors.ReasonOf(err); reason != "" {
			s.metrics.IncrementRegistrationDenial(string(reason))
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, a.Serial)
	s.metrics.IncrementRegistered()
	s.logger.InfoContext(ctx, "asset registered",
		"asset_id", a.ID,
		"serial", a.Serial,
		"owner_id", a.OwnerID,
	)
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionAssetRegistered,
		ActorID: actorID,
		AssetID: &a.ID,
		Serial:  a.Serial,
		To:      string(a.Status),
	})
	return a, nil
}

// UpdateStatus moves the asset to target on behalf of actor, appending the
// history entry and updating the asset atomically.
func (s *Service) UpdateStatus(ctx context.Context, actorID id.AccountID, assetID id.AssetID, target models.Status) (a *models.Asset, err error) {
	ctx, span := tracer.Start(ctx, "asset.UpdateStatus", trace.WithAttributes(
		attribute.String("asset_id", assetID.String()),
		attribute.String("target", string(target)),
	))
	defer func() { tracing.End(span, err) }()

	var from models.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		actor, err := identity.Actor(ctx, st, actorID)
		if err != nil {
			return err
		}
		a, err = findForUpdate(ctx, st, assetID)
		if err != nil {
			return err
		}
		ledger, err := ownership.Ledger(ctx, st, assetID)
		if err != nil {
			return err
		}
		if err := a.CheckStatusChange(actor, ledger.OriginalOwner(a.OwnerID), target); err != nil {
			return err
		}
		if _, err := ensureInitial(ctx, st, a); err != nil {
			return err
		}
		from = a.Status
		entry := a.ApplyStatus(target, actor.ID, requestcontext.Now(ctx))
		if err := st.StatusHistory().Append(ctx, &entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append status history")
		}
		if err := st.Assets().Update(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, a.Serial)
	s.metrics.IncrementStatusChange(string(target))
	s.logger.InfoContext(ctx, "asset status changed",
		"asset_id", a.ID,
		"from", from,
		"to", target,
		"actor_id", actorID,
	)
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionAssetStatusChanged,
		ActorID: actorID,
		AssetID: &a.ID,
		Serial:  a.Serial,
		From:    string(from),
		To:      string(target),
	})
	return a, nil
}

// History returns the status history newest first, synthesizing the creation
// entry first when it is missing. Only the owner or an administrator may read it.
func (s *Service) History(ctx context.Context, requesterID id.AccountID, assetID id.AssetID) ([]models.StatusHistoryEntry, error) {
	var entries []models.StatusHistoryEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		requester, err := identity.Actor(ctx, st, requesterID)
		if err != nil {
			return err
		}
		a, err := find(ctx, st, assetID)
		if err != nil {
			return err
		}
		if requester.ID != a.OwnerID && !requester.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "only the owner or an administrator can view status history")
		}
		if _, err := ensureInitial(ctx, st, a); err != nil {
			return err
		}
		chronological, err := st.StatusHistory().ListByAsset(ctx, assetID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load status history")
		}
		entries = models.NewestFirst(chronological)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureInitialEntry writes the creation entry of an asset if it is missing and
// reports whether it did. Repeated and concurrent calls write at most one entry.
func (s *Service) EnsureInitialEntry(ctx context.Context, assetID id.AssetID) (bool, error) {
	var written bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		a, err := find(ctx, st, assetID)
		if err != nil {
			return err
		}
		written, err = ensureInitial(ctx, st, a)
		return err
	})
	return written, err
}

// Get returns an asset to its owner or an administrator.
func (s *Service) Get(ctx context.Context, requesterID id.AccountID, assetID id.AssetID) (*models.Asset, error) {
	var a *models.Asset
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		requester, err := identity.Actor(ctx, st, requesterID)
		if err != nil {
			return err
		}
		a, err = find(ctx, st, assetID)
		if err != nil {
			return err
		}
		if requester.ID != a.OwnerID && !requester.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "not permitted to view this asset")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CanBeSold reports whether the asset may currently be put into a sale deal.
func (s *Service) CanBeSold(ctx context.Context, assetID id.AssetID) (bool, error) {
	var ok bool
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		a, err := find(ctx, st, assetID)
		if err != nil {
			return err
		}
		owner, err := st.Accounts().FindByID(ctx, a.OwnerID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner")
		}
		ok = a.CanBeSold(owner, requestcontext.Now(ctx))
		return nil
	})
	return ok, err
}

// OriginalOwner returns the account that first owned the asset.
func (s *Service) OriginalOwner(ctx context.Context, assetID id.AssetID) (id.AccountID, error) {
	var original id.AccountID
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		a, err := find(ctx, st, assetID)
		if err != nil {
			return err
		}
		ledger, err := ownership.Ledger(ctx, st, assetID)
		if err != nil {
			return err
		}
		original = ledger.OriginalOwner(a.OwnerID)
		return nil
	})
	return original, err
}

// Verify is the public serial lookup.
func (s *Service) Verify(ctx context.Context, serial string) (*cache.Verification, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "serial is required")
	}
	v, err := s.cache.Get(ctx, serial, func(ctx context.Context) (*cache.Verification, error) {
		return s.loadVerification(ctx, serial)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.IncrementVerification("not_found")
		}
		return nil, err
	}
	s.metrics.IncrementVerification("found")
	return v, nil
}

func (s *Service) loadVerification(ctx context.Context, serial string) (*cache.Verification, error) {
	var v *cache.Verification
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		a, err := st.Assets().FindBySerial(ctx, serial)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "serial "+serial+" is not registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset")
		}
		owner, err := st.Accounts().FindByID(ctx, a.OwnerID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner")
		}
		v = &cache.Verification{
			Name:    a.Name,
			Serial:  a.Serial,
			Status:  string(a.Status),
			CanSell: a.CanBeSold(owner, requestcontext.Now(ctx)),
		}
		if brand, err := st.Catalog().FindBrand(ctx, a.BrandID); err == nil {
			v.Brand = brand.Name
		}
		if category, err := st.Catalog().FindCategory(ctx, a.CategoryID); err == nil {
			v.Category = category.Name
		}
		return nil
	})
	return v, err
}

// ListByOwner returns the assets of owner to the owner or an administrator.
func (s *Service) ListByOwner(ctx context.Context, requesterID, ownerID id.AccountID) ([]*models.Asset, error) {
	var assets []*models.Asset
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		requester, err := identity.Actor(ctx, st, requesterID)
		if err != nil {
			return err
		}
		if requester.ID != ownerID && !requester.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "not permitted to list these assets")
		}
		assets, err = st.Assets().ListByOwner(ctx, ownerID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assets")
		}
		return nil
	})
	return assets, err
}

// StolenReport lists every asset currently reported stolen.
func (s *Service) StolenReport(ctx context.Context, actorID id.AccountID) ([]*models.Asset, error) {
	var assets []*models.Asset
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		var err error
		assets, err = st.Assets().ListByStatus(ctx, models.StatusStolen)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stolen assets")
		}
		return nil
	})
	return assets, err
}

// Search is the administrator lookup by serial, owner handle, or owner phone.
func (s *Service) Search(ctx context.Context, actorID id.AccountID, field storage.AssetField, value string) ([]*models.Asset, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "search value is required")
	}
	switch field {
	case storage.AssetFieldSerial, storage.AssetFieldOwnerHandle, storage.AssetFieldOwnerPhone:
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported search field: "+string(field))
	}

	var assets []*models.Asset
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		var err error
		assets, err = st.Assets().Search(ctx, field, value)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to search assets")
		}
		return nil
	})
	return assets, err
}

// ensureInitial writes the creation entry inside the caller's transaction.
func ensureInitial(ctx context.Context, st storage.Stores, a *models.Asset) (bool, error) {
	existing, err := st.StatusHistory().ListByAsset(ctx, a.ID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load status history")
	}
	if models.HasInitial(existing) {
		return false, nil
	}
	owner := originalOwnerAt(ctx, st, a)
	entry := models.InitialEntry(a, existing, &owner)
	written, err := st.StatusHistory().AppendInitial(ctx, &entry)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record initial status")
	}
	return written, nil
}

// originalOwnerAt attributes a synthesized creation entry to the account that
// owned the asset at registration.
func originalOwnerAt(ctx context.Context, st storage.Stores, a *models.Asset) id.AccountID {
	ledger, err := st.Ownership().ListByAsset(ctx, a.ID)
	if err != nil {
		return a.OwnerID
	}
	return ledger.OriginalOwner(a.OwnerID)
}

func checkCatalog(ctx context.Context, st storage.Stores, category id.CategoryID, brand id.BrandID) error {
	if _, err := st.Catalog().FindCategory(ctx, category); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "category not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load category")
	}
	if _, err := st.Catalog().FindBrand(ctx, brand); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "brand not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load brand")
	}
	return nil
}

func find(ctx context.Context, st storage.Stores, assetID id.AssetID) (*models.Asset, error) {
	a, err := st.Assets().FindByID(ctx, assetID)
	return a, wrapAssetErr(err)
}

func findForUpdate(ctx context.Context, st storage.Stores, assetID id.AssetID) (*models.Asset, error) {
	a, err := st.Assets().FindByIDForUpdate(ctx, assetID)
	return a, wrapAssetErr(err)
}

func wrapAssetErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset")
}
