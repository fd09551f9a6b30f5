package audit

import (
	"time"

	id "provenance/pkg/domain"
)

// Action names a committed engine write.
type Action string

const (
	ActionAccountRegistered    Action = "account_registered"
	ActionAdminCreated         Action = "admin_created"
	ActionShopkeeperApproved   Action = "shopkeeper_approved"
	ActionShopkeeperRejected   Action = "shopkeeper_rejected"
	ActionSubscriptionChanged  Action = "subscription_changed"
	ActionAdminPrivilegeGrant  Action = "admin_privilege_granted"
	ActionCategoryCreated      Action = "category_created"
	ActionBrandCreated         Action = "brand_created"
	ActionBrandRenamed         Action = "brand_renamed"
	ActionBrandDeleted         Action = "brand_deleted"
	ActionAssetRegistered      Action = "asset_registered"
	ActionAssetStatusChanged   Action = "asset_status_changed"
	ActionOwnershipTransferred Action = "ownership_transferred"
	ActionDealCreated          Action = "deal_created"
	ActionDealApproved         Action = "deal_approved"
	ActionDealRejected         Action = "deal_rejected"
	ActionDealCompleted        Action = "deal_completed"
	ActionDealCancelled        Action = "deal_cancelled"
)

// Event describes one committed write. Subjects are optional; set the ones
// the action touches.
type Event struct {
	Action    Action        `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	ActorID   id.AccountID  `json:"actor_id"`
	AccountID *id.AccountID `json:"account_id,omitempty"`
	AssetID   *id.AssetID   `json:"asset_id,omitempty"`
	DealID    *id.DealID    `json:"deal_id,omitempty"`
	Serial    string        `json:"serial,omitempty"`
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// Key returns the partitioning key: the most specific subject.
func (e Event) Key() string {
	switch {
	case e.AssetID != nil:
		return e.AssetID.String()
	case e.DealID != nil:
		return e.DealID.String()
	case e.AccountID != nil:
		return e.AccountID.String()
	default:
		return e.ActorID.String()
	}
}
