package domain

import (
	"github.com/google/uuid"

	dErrors "provenance/pkg/domain-errors"
)

// Typed identifiers keep account, asset, and deal references from being
// mixed up at call sites. Construct them with the Parse functions at trust
// boundaries; New* helpers are for code that mints fresh identifiers.
type (
	AccountID  uuid.UUID
	AssetID    uuid.UUID
	DealID     uuid.UUID
	CategoryID uuid.UUID
	BrandID    uuid.UUID
)

func NewAccountID() AccountID   { return AccountID(uuid.New()) }
func NewAssetID() AssetID       { return AssetID(uuid.New()) }
func NewDealID() DealID         { return DealID(uuid.New()) }
func NewCategoryID() CategoryID { return CategoryID(uuid.New()) }
func NewBrandID() BrandID       { return BrandID(uuid.New()) }

func (id AccountID) String() string  { return uuid.UUID(id).String() }
func (id AssetID) String() string    { return uuid.UUID(id).String() }
func (id DealID) String() string     { return uuid.UUID(id).String() }
func (id CategoryID) String() string { return uuid.UUID(id).String() }
func (id BrandID) String() string    { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AssetID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id DealID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CategoryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id BrandID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id AccountID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id AssetID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id DealID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id CategoryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id BrandID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *AccountID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AssetID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DealID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CategoryID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BrandID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID enforces the shared invariant: non-empty, well-formed, non-nil.
func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID("account id", s)
	return AccountID(u), err
}

func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID("asset id", s)
	return AssetID(u), err
}

func ParseDealID(s string) (DealID, error) {
	u, err := parseUUID("deal id", s)
	return DealID(u), err
}

func ParseCategoryID(s string) (CategoryID, error) {
	u, err := parseUUID("category id", s)
	return CategoryID(u), err
}

func ParseBrandID(s string) (BrandID, error) {
	u, err := parseUUID("brand id", s)
	return BrandID(u), err
}
