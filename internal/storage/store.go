// Package storage defines the unit of work shared by every engine module.
//
// Each ledger append and its entity mutation run inside one RunInTx call, so a
// status change can never be recorded without the asset changing and an
// ownership entry can never exist without the owner moving. Implementations
// live in the memory and postgres subpackages.
package storage

import (
	"context"

	asset "provenance/internal/asset/models"
	catalog "provenance/internal/catalog/models"
	deal "provenance/internal/deal/models"
	identity "provenance/internal/identity/models"
	ownership "provenance/internal/ownership/models"
	id "provenance/pkg/domain"
)

// Tx is the transactional boundary. fn receives a context and a Stores view
// bound to the transaction; returning an error rolls back every write made
// through it.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// Stores groups the per-table repositories participating in one unit of work.
type Stores interface {
	Accounts() AccountStore
	Catalog() CatalogStore
	Assets() AssetStore
	StatusHistory() StatusHistoryStore
	Ownership() OwnershipStore
	Deals() DealStore
}

// AccountFilter narrows account listings. Zero values match everything.
type AccountFilter struct {
	// Text matches handle, email, or phone (case-insensitive substring).
	Text        string
	Role        identity.RoleKind
	PendingOnly bool
}

// AccountField names a searchable account attribute.
type AccountField string

const (
	AccountFieldHandle     AccountField = "handle"
	AccountFieldPhone      AccountField = "phone"
	AccountFieldNationalID AccountField = "national_id"
	AccountFieldShopName   AccountField = "shop_name"
)

// AccountStore persists accounts. Create returns sentinel.ErrAlreadyUsed
// wrapped in a *UniqueViolation naming the colliding field.
type AccountStore interface {
	Create(ctx context.Context, account *identity.Account) error
	Update(ctx context.Context, account *identity.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*identity.Account, error)
	// FindByIDForUpdate locks the account row until the transaction ends.
	FindByIDForUpdate(ctx context.Context, accountID id.AccountID) (*identity.Account, error)
	FindByHandle(ctx context.Context, handle string) (*identity.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]*identity.Account, error)
	// Search matches exactly on handle, phone, and national id, and by
	// case-insensitive substring on shop name.
	Search(ctx context.Context, field AccountField, value string) ([]*identity.Account, error)
}

// CatalogStore persists categories and brands.
type CatalogStore interface {
	CreateCategory(ctx context.Context, category *catalog.Category) error
	FindCategory(ctx context.Context, categoryID id.CategoryID) (*catalog.Category, error)
	ListCategories(ctx context.Context) ([]*catalog.Category, error)
	CreateBrand(ctx context.Context, brand *catalog.Brand) error
	UpdateBrand(ctx context.Context, brand *catalog.Brand) error
	DeleteBrand(ctx context.Context, brandID id.BrandID) error
	FindBrand(ctx context.Context, brandID id.BrandID) (*catalog.Brand, error)
	ListBrands(ctx context.Context) ([]*catalog.Brand, error)
}

// AssetField names a searchable asset attribute.
type AssetField string

const (
	AssetFieldSerial      AssetField = "serial"
	AssetFieldOwnerHandle AssetField = "owner_handle"
	AssetFieldOwnerPhone  AssetField = "owner_phone"
)

// AssetStore persists assets. Serial uniqueness is enforced here, not by
// callers: Create returns sentinel.ErrAlreadyUsed on a duplicate serial.
type AssetStore interface {
	Create(ctx context.Context, asset *asset.Asset) error
	Update(ctx context.Context, asset *asset.Asset) error
	FindByID(ctx context.Context, assetID id.AssetID) (*asset.Asset, error)
	FindByIDForUpdate(ctx context.Context, assetID id.AssetID) (*asset.Asset, error)
	FindBySerial(ctx context.Context, serial string) (*asset.Asset, error)
	FindBySerialForUpdate(ctx context.Context, serial string) (*asset.Asset, error)
	CountByOwner(ctx context.Context, owner id.AccountID) (int, error)
	CountByBrand(ctx context.Context, brand id.BrandID) (int, error)
	ListByOwner(ctx context.Context, owner id.AccountID) ([]*asset.Asset, error)
	ListByStatus(ctx context.Context, status asset.Status) ([]*asset.Asset, error)
	Search(ctx context.Context, field AssetField, value string) ([]*asset.Asset, error)
}

// StatusHistoryStore is the append-only status ledger.
type StatusHistoryStore interface {
	Append(ctx context.Context, entry *asset.StatusHistoryEntry) error
	// AppendInitial inserts a creation entry unless one already exists for the
	// asset. It reports whether a row was written.
	AppendInitial(ctx context.Context, entry *asset.StatusHistoryEntry) (bool, error)
	// ListByAsset returns entries oldest first.
	ListByAsset(ctx context.Context, assetID id.AssetID) ([]asset.StatusHistoryEntry, error)
}

// OwnershipStore is the append-only ownership ledger.
type OwnershipStore interface {
	Append(ctx context.Context, entry *ownership.Entry) error
	// ListByAsset returns the ledger oldest first.
	ListByAsset(ctx context.Context, assetID id.AssetID) (ownership.Ledger, error)
}

// DealStore persists deals with their items. Items are written once by Create;
// Update only touches lifecycle columns.
type DealStore interface {
	Create(ctx context.Context, deal *deal.Deal) error
	Update(ctx context.Context, deal *deal.Deal) error
	FindByID(ctx context.Context, dealID id.DealID) (*deal.Deal, error)
	// FindByIDForUpdate locks the deal row, serializing concurrent decisions.
	FindByIDForUpdate(ctx context.Context, dealID id.DealID) (*deal.Deal, error)
	ListByParticipant(ctx context.Context, account id.AccountID) ([]*deal.Deal, error)
	ListByStatus(ctx context.Context, status deal.Status) ([]*deal.Deal, error)
	// Search matches case-insensitively on seller handle or external name,
	// buyer handle, buyer or external seller phone, and item serials.
	Search(ctx context.Context, query string) ([]*deal.Deal, error)
}
