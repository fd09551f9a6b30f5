package models

import (
	"strings"
	"time"

	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// RoleKind names a role for filtering and serialization.
type RoleKind string

const (
	RoleAdmin      RoleKind = "admin"
	RoleShopkeeper RoleKind = "shopkeeper"
	RoleUser       RoleKind = "user"
)

// Role is a closed set of account roles. Only the types in this package
// implement it, so an account is exactly one of Admin, Shopkeeper, or User
// and combinations such as admin+shopkeeper cannot be represented.
type Role interface {
	Kind() RoleKind
	isRole()
}

// Admin may approve deals and manage accounts. CanGrantAdmin marks the
// administrators allowed to create further administrators.
type Admin struct {
	CanGrantAdmin bool
}

// Shopkeeper is a merchant account. Unapproved shopkeepers cannot register assets.
type Shopkeeper struct {
	Approved bool
}

// User is a regular account.
type User struct{}

func (Admin) Kind() RoleKind      { return RoleAdmin }
func (Shopkeeper) Kind() RoleKind { return RoleShopkeeper }
func (User) Kind() RoleKind       { return RoleUser }

func (Admin) isRole()      {}
func (Shopkeeper) isRole() {}
func (User) isRole()       {}

// RoleFromFlags derives the role from persisted flags, checking admin, then
// shopkeeper, then falling back to user.
func RoleFromFlags(isAdmin, isShopkeeper, shopkeeperApproved, canGrantAdmin bool) Role {
	switch {
	case isAdmin:
		return Admin{CanGrantAdmin: canGrantAdmin}
	case isShopkeeper:
		return Shopkeeper{Approved: shopkeeperApproved}
	default:
		return User{}
	}
}

// RoleFlags flattens a role back into persisted columns.
type RoleFlags struct {
	IsAdmin            bool
	IsShopkeeper       bool
	ShopkeeperApproved bool
	CanGrantAdmin      bool
}

// FlagsOf is the inverse of RoleFromFlags.
func FlagsOf(r Role) RoleFlags {
	switch v := r.(type) {
	case Admin:
		return RoleFlags{IsAdmin: true, CanGrantAdmin: v.CanGrantAdmin}
	case Shopkeeper:
		return RoleFlags{IsShopkeeper: true, ShopkeeperApproved: v.Approved}
	default:
		return RoleFlags{}
	}
}

// ParseRoleKind validates a role filter value.
func ParseRoleKind(s string) (RoleKind, error) {
	switch RoleKind(s) {
	case RoleAdmin, RoleShopkeeper, RoleUser:
		return RoleKind(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
}

// Account is the aggregate root for a participant.
//
// Invariants:
//   - Handle, Email, Phone, NationalID are non-empty and globally unique (enforced by the store)
//   - Role is fixed at creation except shopkeeper approval and the one-time can-grant-admin elevation
//   - Shopkeepers carry a ShopName
type Account struct {
	ID              id.AccountID
	Handle          string
	Email           string
	Phone           string
	NationalID      string
	ShopName        string
	Role            Role
	HasSubscription bool
	CreatedAt       time.Time
}

// NewAccount validates and constructs an account.
func NewAccount(accountID id.AccountID, handle, email, phone, nationalID, shopName string, role Role, now time.Time) (*Account, error) {
	handle = strings.TrimSpace(handle)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	nationalID = strings.TrimSpace(nationalID)
	shopName = strings.TrimSpace(shopName)

	switch {
	case handle == "":
		return nil, dErrors.New(dErrors.CodeValidation, "handle is required")
	case len(handle) > 80:
		return nil, dErrors.New(dErrors.CodeValidation, "handle must be 80 characters or less")
	case email == "" || !strings.Contains(email, "@"):
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	case phone == "":
		return nil, dErrors.New(dErrors.CodeValidation, "phone is required")
	case nationalID == "":
		return nil, dErrors.New(dErrors.CodeValidation, "national id is required")
	case role == nil:
		return nil, dErrors.New(dErrors.CodeValidation, "role is required")
	}
	if role.Kind() == RoleShopkeeper && shopName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "shop name is required for shopkeepers")
	}

	return &Account{
		ID:         accountID,
		Handle:     handle,
		Email:      email,
		Phone:      phone,
		NationalID: nationalID,
		ShopName:   shopName,
		Role:       role,
		CreatedAt:  now,
	}, nil
}

func (a *Account) IsAdmin() bool {
	return a.Role.Kind() == RoleAdmin
}

func (a *Account) IsShopkeeper() bool {
	return a.Role.Kind() == RoleShopkeeper
}

func (a *Account) CanGrantAdmin() bool {
	admin, ok := a.Role.(Admin)
	return ok && admin.CanGrantAdmin
}

// IsPendingShopkeeper reports a shopkeeper still awaiting administrator approval.
func (a *Account) IsPendingShopkeeper() bool {
	sk, ok := a.Role.(Shopkeeper)
	return ok && !sk.Approved
}

// SetShopkeeperApproval flips the approval flag. Only shopkeepers have one.
func (a *Account) SetShopkeeperApproval(approved bool) error {
	if !a.IsShopkeeper() {
		return dErrors.New(dErrors.CodeInvalidTransition, "account is not a shopkeeper")
	}
	a.Role = Shopkeeper{Approved: approved}
	return nil
}

// ElevateToGrantAdmin sets can-grant-admin. It is a one-way, one-time change.
func (a *Account) ElevateToGrantAdmin() error {
	admin, ok := a.Role.(Admin)
	if !ok {
		return dErrors.New(dErrors.CodeInvalidTransition, "account is not an administrator")
	}
	if admin.CanGrantAdmin {
		return dErrors.New(dErrors.CodeInvalidTransition, "administrator already holds grant privilege")
	}
	a.Role = Admin{CanGrantAdmin: true}
	return nil
}
