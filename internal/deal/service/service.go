// Package service implements the deal workflow: creation with per-item
// eligibility checks, the administrator decision, completion, and
// cancellation.
//
// Ownership moves exactly once per deal. Approval and completion both run the
// per-item transfer sequence, and an item whose ledger already holds an entry
// for the deal is skipped, so either checkpoint may run first or both may run.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	asset "provenance/internal/asset/models"
	"provenance/internal/asset/cache"
	"provenance/internal/audit"
	"provenance/internal/deal/metrics"
	"provenance/internal/deal/models"
	accounts "provenance/internal/identity/models"
	identity "provenance/internal/identity/service"
	ledger "provenance/internal/ownership/models"
	ownership "provenance/internal/ownership/service"
	"provenance/internal/platform/tracing"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

var tracer = otel.Tracer("provenance/internal/deal/service")

// Service runs the deal lifecycle.
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

// WithCache invalidates verification entries of assets that change owner.
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

// ItemRequest names one asset line by serial.
type ItemRequest struct {
	Serial string
	Price  decimal.Decimal
}

// CreateCommand describes a new deal. An empty BuyerHandle means the actor
// buys. The seller is ExternalSeller when set, else SellerHandle, else the actor.
type CreateCommand struct {
	Kind           models.Kind
	BuyerHandle    string
	SellerHandle   string
	ExternalSeller *models.ExternalSeller
	Items          []ItemRequest
	Description    string
}

// CreateDeal opens a deal between registered accounts. Sales wait for an
// administrator; transfers move ownership at creation.
func (s *Service) CreateDeal(ctx context.Context, actorID id.AccountID, cmd CreateCommand) (*models.Deal, error) {
	if cmd.Kind == "" {
		cmd.Kind = models.KindSale
	}
	if cmd.ExternalSeller != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "use a purchase for unregistered sellers")
	}
	return s.create(ctx, actorID, cmd, cmd.Kind == models.KindTransfer)
}

// CreatePurchase records the actor buying from an unregistered seller. The deal
// waits for an administrator.
func (s *Service) CreatePurchase(ctx context.Context, actorID id.AccountID, cmd CreateCommand) (*models.Deal, error) {
	if cmd.ExternalSeller == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "external seller details are required")
	}
	cmd.Kind = models.KindSale
	cmd.BuyerHandle = ""
	cmd.SellerHandle = ""
	return s.create(ctx, actorID, cmd, false)
}

// CreateTransfer moves assets with no commercial exchange, immediately.
func (s *Service) CreateTransfer(ctx context.Context, actorID id.AccountID, cmd CreateCommand) (*models.Deal, error) {
	cmd.Kind = models.KindTransfer
	return s.create(ctx, actorID, cmd, true)
}

// CreateUnified creates a deal of any kind and moves ownership at creation.
func (s *Service) CreateUnified(ctx context.Context, actorID id.AccountID, cmd CreateCommand) (*models.Deal, error) {
	if cmd.Kind == "" {
		cmd.Kind = models.KindSale
	}
	return s.create(ctx, actorID, cmd, true)
}

func (s *Service) create(ctx context.Context, actorID id.AccountID, cmd CreateCommand, immediate bool) (d *models.Deal, err error) {
	ctx, span := tracer.Start(ctx, "deal.Create", trace.WithAttributes(
		attribute.String("kind", string(cmd.Kind)),
		attribute.Bool("immediate", immediate),
		attribute.Int("items", len(cmd.Items)),
	))
	defer func() { tracing.End(span, err) }()

	if cmd.Kind != models.KindSale && cmd.Kind != models.KindTransfer {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown deal kind: "+string(cmd.Kind))
	}
	if err := checkItemRequests(cmd.Items); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var moved []string
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		actor, err := identity.Actor(ctx, st, actorID)
		if err != nil {
			return err
		}
		if actor.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "administrators cannot create deals")
		}
		buyer, seller, err := resolveParties(ctx, st, actor, cmd)
		if err != nil {
			return err
		}
		if seller != nil && cmd.Kind == models.KindSale {
			if err := seller.CheckInitiateSale(now); err != nil {
				return err
			}
		}

		items, err := lockItems(ctx, st, cmd, buyer, seller, now)
		if err != nil {
			return err
		}

		var sellerID *id.AccountID
		if seller != nil {
			sellerID = &seller.ID
		}
		d, err = models.NewDeal(id.NewDealID(), cmd.Kind, buyer.ID, sellerID, cmd.ExternalSeller, items, cmd.Description, now)
		if err != nil {
			return err
		}
		if err := st.Deals().Create(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create deal")
		}
		if !immediate {
			return nil
		}

		for _, item := range d.Items {
			a, err := st.Assets().FindByIDForUpdate(ctx, item.AssetID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload asset")
			}
			if _, err := ownership.RecordTransfer(ctx, st, a, d.BuyerID, &d.ID, ledger.KindTransfer, now); err != nil {
				return err
			}
			s.metrics.IncrementTransfer(string(ledger.KindTransfer))
			moved = append(moved, a.Serial)
		}
		if err := d.FinalizeImmediately(); err != nil {
			return err
		}
		if err := st.Deals().Update(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize deal")
		}
		return nil
	})
	if err != nil {
		if reason := dErrors.ReasonOf(err); reason != "" {
			s.metrics.IncrementEligibilityDenial(string(reason))
		}
		return nil, err
	}

	s.metrics.IncrementCreated(string(d.Kind), immediate)
	s.cache.Invalidate(ctx, moved...)
	s.logger.InfoContext(ctx, "deal created",
		"deal_id", d.ID,
		"kind", d.Kind,
		"status", d.Status,
		"items", len(d.Items),
		"total", d.TotalAmount.StringFixed(2),
	)
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionDealCreated,
		ActorID: actorID,
		DealID:  &d.ID,
		To:      string(d.Status),
	})
	s.emitTransfers(ctx, actorID, d, moved)
	return d, nil
}

// Approve is the administrator approval. It transfers every item to the buyer.
// Approving an already approved deal returns it unchanged.
func (s *Service) Approve(ctx context.Context, actorID id.AccountID, dealID id.DealID, notes string) (*models.Deal, error) {
	return s.decide(ctx, actorID, dealID, models.StatusApproved, func(d *models.Deal, now time.Time) (bool, error) {
		if d.Status == models.StatusApproved {
			return false, nil
		}
		if err := d.ApplyDecision(true, actorID, notes, now); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Reject is the administrator rejection. No assets move.
func (s *Service) Reject(ctx context.Context, actorID id.AccountID, dealID id.DealID, notes string) (*models.Deal, error) {
	return s.decide(ctx, actorID, dealID, models.StatusRejected, func(d *models.Deal, now time.Time) (bool, error) {
		return false, d.ApplyDecision(false, actorID, notes, now)
	})
}

// Complete closes an approved deal, transferring any item approval did not move.
func (s *Service) Complete(ctx context.Context, actorID id.AccountID, dealID id.DealID) (*models.Deal, error) {
	return s.decide(ctx, actorID, dealID, models.StatusCompleted, func(d *models.Deal, now time.Time) (bool, error) {
		if err := d.ApplyCompletion(now); err != nil {
			return false, err
		}
		return true, nil
	})
}

// decide runs an administrator transition under the deal row lock. apply
// mutates the deal and reports whether items must be transferred; a call that
// leaves the status untouched writes nothing.
func (s *Service) decide(ctx context.Context, actorID id.AccountID, dealID id.DealID, target models.Status, apply func(*models.Deal, time.Time) (bool, error)) (d *models.Deal, err error) {
	ctx, span := tracer.Start(ctx, "deal.Decide", trace.WithAttributes(
		attribute.String("deal_id", dealID.String()),
		attribute.String("target", string(target)),
	))
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveDecision(time.Now())

	var (
		moved   []string
		changed bool
	)
	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		d, err = findForUpdate(ctx, st, dealID)
		if err != nil {
			return err
		}
		before := d.Status
		transfer, err := apply(d, now)
		if err != nil {
			return err
		}
		if d.Status == before {
			return nil
		}
		changed = true
		if transfer {
			moved, err = s.transferItems(ctx, st, d, now)
			if err != nil {
				return err
			}
		}
		if err := st.Deals().Update(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update deal")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		s.logger.InfoContext(ctx, "deal decision was a no-op", "deal_id", d.ID, "status", d.Status)
		return d, nil
	}

	s.metrics.IncrementTransition(string(target))
	s.cache.Invalidate(ctx, moved...)
	s.logger.InfoContext(ctx, "deal transitioned",
		"deal_id", d.ID,
		"status", d.Status,
		"actor_id", actorID,
		"transferred", len(moved),
	)
	s.auditor.Emit(ctx, audit.Event{
		Action:  decisionAction(target),
		ActorID: actorID,
		DealID:  &d.ID,
		To:      string(d.Status),
		Reason:  d.ApprovalNotes,
	})
	s.emitTransfers(ctx, actorID, d, moved)
	return d, nil
}

// transferItems moves every item of d to the buyer, skipping items the deal
// already moved. Each asset is re-checked under its row lock.
func (s *Service) transferItems(ctx context.Context, st storage.Stores, d *models.Deal, now time.Time) ([]string, error) {
	var moved []string
	for _, item := range d.Items {
		a, err := st.Assets().FindByIDForUpdate(ctx, item.AssetID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeIntegrityViolation, "deal references a missing asset")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock asset")
		}
		history, err := ownership.Ledger(ctx, st, a.ID)
		if err != nil {
			return nil, err
		}
		if history.HasDealTransfer(d.ID) {
			s.metrics.IncrementTransferSkipped()
			continue
		}
		if a.Status.IsRestricted() {
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "asset "+a.Serial+" is "+string(a.Status))
		}
		if d.SellerID != nil && a.OwnerID != *d.SellerID {
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "asset "+a.Serial+" no longer belongs to the seller")
		}
		if _, err := ownership.RecordTransfer(ctx, st, a, d.BuyerID, &d.ID, d.Kind.TransferKind(), now); err != nil {
			return nil, err
		}
		s.metrics.IncrementTransfer(string(d.Kind.TransferKind()))
		moved = append(moved, a.Serial)
	}
	return moved, nil
}

// Cancel withdraws a pending deal. Buyer, registered seller, or an
// administrator may cancel. No assets move.
func (s *Service) Cancel(ctx context.Context, actorID id.AccountID, dealID id.DealID) (d *models.Deal, err error) {
	ctx, span := tracer.Start(ctx, "deal.Cancel")
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		actor, err := identity.Actor(ctx, st, actorID)
		if err != nil {
			return err
		}
		d, err = findForUpdate(ctx, st, dealID)
		if err != nil {
			return err
		}
		if !d.Involves(actor.ID) && !actor.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "only a participant or an administrator can cancel this deal")
		}
		if err := d.ApplyCancel(); err != nil {
			return err
		}
		if err := st.Deals().Update(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel deal")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransition(string(models.StatusCancelled))
	s.logger.InfoContext(ctx, "deal cancelled", "deal_id", d.ID, "actor_id", actorID)
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionDealCancelled, ActorID: actorID, DealID: &d.ID})
	return d, nil
}

// Get returns a deal to a participant or an administrator.
func (s *Service) Get(ctx context.Context, requesterID id.AccountID, dealID id.DealID) (*models.Deal, error) {
	var d *models.Deal
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		requester, err := identity.Actor(ctx, st, requesterID)
		if err != nil {
			return err
		}
		d, err = find(ctx, st, dealID)
		if err != nil {
			return err
		}
		if !d.Involves(requester.ID) && !requester.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "not permitted to view this deal")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListForAccount returns the deals where account buys or sells.
func (s *Service) ListForAccount(ctx context.Context, requesterID, accountID id.AccountID) ([]*models.Deal, error) {
	var deals []*models.Deal
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		requester, err := identity.Actor(ctx, st, requesterID)
		if err != nil {
			return err
		}
		if requester.ID != accountID && !requester.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "not permitted to list these deals")
		}
		deals, err = st.Deals().ListByParticipant(ctx, accountID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list deals")
		}
		return nil
	})
	return deals, err
}

func (s *Service) ListByStatus(ctx context.Context, actorID id.AccountID, status models.Status) ([]*models.Deal, error) {
	var deals []*models.Deal
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		var err error
		deals, err = st.Deals().ListByStatus(ctx, status)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list deals")
		}
		return nil
	})
	return deals, err
}

// Search matches seller, buyer, phone, and serial text.
func (s *Service) Search(ctx context.Context, actorID id.AccountID, query string) ([]*models.Deal, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "search query is required")
	}
	var deals []*models.Deal
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := identity.Admin(ctx, st, actorID); err != nil {
			return err
		}
		var err error
		deals, err = st.Deals().Search(ctx, query)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to search deals")
		}
		return nil
	})
	return deals, err
}

func (s *Service) emitTransfers(ctx context.Context, actorID id.AccountID, d *models.Deal, serials []string) {
	for _, serial := range serials {
		s.auditor.Emit(ctx, audit.Event{
			Action:    audit.ActionOwnershipTransferred,
			ActorID:   actorID,
			DealID:    &d.ID,
			AccountID: &d.BuyerID,
			Serial:    serial,
			To:        string(d.Kind.TransferKind()),
		})
	}
}

func decisionAction(target models.Status) audit.Action {
	switch target {
	case models.StatusApproved:
		return audit.ActionDealApproved
	case models.StatusRejected:
		return audit.ActionDealRejected
	default:
		return audit.ActionDealCompleted
	}
}

func checkItemRequests(items []ItemRequest) error {
	if len(items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "a deal needs at least one asset")
	}
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		serial := strings.TrimSpace(items[i].Serial)
		if serial == "" {
			return dErrors.New(dErrors.CodeValidation, "serial is required for every item")
		}
		if _, dup := seen[serial]; dup {
			return dErrors.New(dErrors.CodeValidation, "serial "+serial+" appears more than once")
		}
		seen[serial] = struct{}{}
		if items[i].Price.IsNegative() {
			return dErrors.New(dErrors.CodeValidation, "price must not be negative")
		}
	}
	return nil
}

// resolveParties returns the buyer and the registered seller (nil for an
// external seller). The actor must be one of them.
func resolveParties(ctx context.Context, st storage.Stores, actor *accounts.Account, cmd CreateCommand) (*accounts.Account, *accounts.Account, error) {
	buyer := actor
	if cmd.BuyerHandle != "" {
		var err error
		buyer, err = identity.FindByHandle(ctx, st, cmd.BuyerHandle)
		if err != nil {
			return nil, nil, err
		}
	}

	var seller *accounts.Account
	switch {
	case cmd.ExternalSeller != nil:
		if cmd.SellerHandle != "" {
			return nil, nil, dErrors.New(dErrors.CodeValidation, "seller must be either a registered account or an external party")
		}
	case cmd.SellerHandle != "":
		var err error
		seller, err = identity.FindByHandle(ctx, st, cmd.SellerHandle)
		if err != nil {
			return nil, nil, err
		}
	default:
		seller = actor
	}

	if seller != nil && seller.ID == buyer.ID {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "buyer and seller must differ")
	}
	if buyer.IsAdmin() || (seller != nil && seller.IsAdmin()) {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "administrators cannot take part in deals")
	}
	if buyer.ID != actor.ID && (seller == nil || seller.ID != actor.ID) {
		return nil, nil, dErrors.New(dErrors.CodeForbidden, "the initiator must be the buyer or the seller")
	}
	return buyer, seller, nil
}

// lockItems resolves every serial under a row lock and checks it against the
// kind-specific eligibility rule. Any failing item aborts the whole creation.
func lockItems(ctx context.Context, st storage.Stores, cmd CreateCommand, buyer, seller *accounts.Account, now time.Time) ([]models.Item, error) {
	items := make([]models.Item, 0, len(cmd.Items))
	for _, req := range cmd.Items {
		serial := strings.TrimSpace(req.Serial)
		a, err := st.Assets().FindBySerialForUpdate(ctx, serial)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "serial "+serial+" is not registered")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock asset")
		}
		if seller != nil && a.OwnerID != seller.ID {
			return nil, dErrors.New(dErrors.CodeForbidden, "asset "+serial+" does not belong to the seller")
		}
		if a.OwnerID == buyer.ID {
			return nil, dErrors.New(dErrors.CodeValidation, "buyer already owns asset "+serial)
		}
		if err := checkEligible(ctx, st, cmd.Kind, a, seller, now); err != nil {
			return nil, err
		}
		items = append(items, models.Item{AssetID: a.ID, Serial: a.Serial, Price: req.Price})
	}
	return items, nil
}

func checkEligible(ctx context.Context, st storage.Stores, kind models.Kind, a *asset.Asset, owner *accounts.Account, now time.Time) error {
	if kind == models.KindTransfer {
		return a.CheckTransferable()
	}
	if owner == nil {
		var err error
		owner, err = st.Accounts().FindByID(ctx, a.OwnerID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset owner")
		}
	}
	return a.CheckSaleable(owner, now)
}

func find(ctx context.Context, st storage.Stores, dealID id.DealID) (*models.Deal, error) {
	d, err := st.Deals().FindByID(ctx, dealID)
	return d, wrapDealErr(err)
}

func findForUpdate(ctx context.Context, st storage.Stores, dealID id.DealID) (*models.Deal, error) {
	d, err := st.Deals().FindByIDForUpdate(ctx, dealID)
	return d, wrapDealErr(err)
}

func wrapDealErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "deal not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load deal")
}
