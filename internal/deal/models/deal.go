package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ownership "provenance/internal/ownership/models"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// Status is the deal lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCompleted},
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports rejected, cancelled, and completed.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown deal status: "+s)
}

// Kind distinguishes commercial sales from non-commercial reassignment.
type Kind string

const (
	KindSale     Kind = "sale"
	KindTransfer Kind = "transfer"
)

// ParseKind accepts "normal" as an alias of sale.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSpace(s) {
	case "", "sale", "normal":
		return KindSale, nil
	case "transfer":
		return KindTransfer, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown deal kind: "+s)
}

// TransferKind is the ownership ledger kind recorded for items of this deal.
func (k Kind) TransferKind() ownership.TransferKind {
	if k == KindTransfer {
		return ownership.KindTransfer
	}
	return ownership.KindSale
}

// ExternalSeller describes an unregistered third-party seller.
type ExternalSeller struct {
	Name       string
	Phone      string
	NationalID string
	Address    string
}

// Item is one asset line. Items are immutable once the deal leaves pending.
type Item struct {
	ID      uuid.UUID
	AssetID id.AssetID
	Serial  string
	Price   decimal.Decimal
}

// Deal moves a set of assets from a seller to a buyer.
//
// Invariants:
//   - exactly one of SellerID and ExternalSeller is set
//   - BuyerID differs from SellerID
//   - Items is non-empty with distinct assets
type Deal struct {
	ID             id.DealID
	Status         Status
	Kind           Kind
	BuyerID        id.AccountID
	SellerID       *id.AccountID
	ExternalSeller *ExternalSeller
	TotalAmount    decimal.Decimal
	Description    string
	ApprovedBy     *id.AccountID
	ApprovedAt     *time.Time
	ApprovalNotes  string
	CreatedAt      time.Time
	CompletedAt    *time.Time
	Items          []Item
}

// NewDeal builds a pending deal. Totals are derived from the items: the sum of
// line prices for sales, zero for transfers.
func NewDeal(dealID id.DealID, kind Kind, buyer id.AccountID, seller *id.AccountID, external *ExternalSeller, items []Item, description string, now time.Time) (*Deal, error) {
	if buyer.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "buyer is required")
	}
	if seller == nil && external == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "a seller is required")
	}
	if seller != nil && external != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "seller must be either a registered account or an external party")
	}
	if seller != nil && *seller == buyer {
		return nil, dErrors.New(dErrors.CodeValidation, "buyer and seller must differ")
	}
	if external != nil && strings.TrimSpace(external.Name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "external seller name is required")
	}
	if len(items) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "a deal needs at least one asset")
	}

	seen := make(map[id.AssetID]struct{}, len(items))
	total := decimal.Zero
	for i := range items {
		if _, dup := seen[items[i].AssetID]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, "asset "+items[i].Serial+" appears more than once")
		}
		seen[items[i].AssetID] = struct{}{}
		if items[i].Price.IsNegative() {
			return nil, dErrors.New(dErrors.CodeValidation, "price must not be negative")
		}
		if kind == KindTransfer {
			items[i].Price = decimal.Zero
		}
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		total = total.Add(items[i].Price)
	}

	return &Deal{
		ID:             dealID,
		Status:         StatusPending,
		Kind:           kind,
		BuyerID:        buyer,
		SellerID:       seller,
		ExternalSeller: external,
		TotalAmount:    total,
		Description:    strings.TrimSpace(description),
		CreatedAt:      now,
		Items:          items,
	}, nil
}

// Involves reports whether account is the buyer or the registered seller.
func (d *Deal) Involves(account id.AccountID) bool {
	return d.BuyerID == account || (d.SellerID != nil && *d.SellerID == account)
}

func (d *Deal) transition(next Status) error {
	if !d.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"deal cannot move from "+string(d.Status)+" to "+string(next))
	}
	d.Status = next
	return nil
}

// ApplyDecision records an administrator approval or rejection.
func (d *Deal) ApplyDecision(approve bool, approver id.AccountID, notes string, now time.Time) error {
	next := StatusRejected
	if approve {
		next = StatusApproved
	}
	if err := d.transition(next); err != nil {
		return err
	}
	by := approver
	at := now
	d.ApprovedBy = &by
	d.ApprovedAt = &at
	d.ApprovalNotes = strings.TrimSpace(notes)
	return nil
}

// ApplyCompletion stamps completed_at.
func (d *Deal) ApplyCompletion(now time.Time) error {
	if err := d.transition(StatusCompleted); err != nil {
		return err
	}
	at := now
	d.CompletedAt = &at
	return nil
}

// ApplyCancel cancels a pending deal. No assets move.
func (d *Deal) ApplyCancel() error {
	return d.transition(StatusCancelled)
}

// FinalizeImmediately marks a deal whose items were transferred at creation.
// It skips the approval gate and is only valid for a fresh pending deal.
func (d *Deal) FinalizeImmediately() error {
	if d.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvalidTransition, "only a new deal can be finalized immediately")
	}
	d.Status = StatusCompleted
	at := d.CreatedAt
	d.CompletedAt = &at
	return nil
}
