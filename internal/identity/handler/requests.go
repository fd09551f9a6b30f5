package handler

import (
	"strings"

	"provenance/internal/identity/service"
	dErrors "provenance/pkg/domain-errors"
)

// RegisterAccountRequest is the body of POST /accounts.
type RegisterAccountRequest struct {
	Handle     string `json:"handle"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
	Shopkeeper bool   `json:"shopkeeper"`
	ShopName   string `json:"shop_name"`
}

func (r *RegisterAccountRequest) Validate() error {
	r.Handle = strings.TrimSpace(r.Handle)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.ShopName = strings.TrimSpace(r.ShopName)
	if len(r.Handle) > 64 || len(r.Email) > 254 || len(r.Phone) > 32 || len(r.NationalID) > 32 || len(r.ShopName) > 128 {
		return dErrors.New(dErrors.CodeValidation, "field exceeds maximum length")
	}
	return nil
}

func (r *RegisterAccountRequest) Command() service.RegisterAccountCommand {
	return service.RegisterAccountCommand{
		Handle:     r.Handle,
		Email:      r.Email,
		Phone:      r.Phone,
		NationalID: r.NationalID,
		Shopkeeper: r.Shopkeeper,
		ShopName:   r.ShopName,
	}
}

// CreateAdminRequest is the body of POST /admin/admins.
type CreateAdminRequest struct {
	Handle     string `json:"handle"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
	Level      string `json:"level"`
}

func (r *CreateAdminRequest) Validate() error {
	r.Handle = strings.TrimSpace(r.Handle)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.Level = strings.ToLower(strings.TrimSpace(r.Level))
	return nil
}

func (r *CreateAdminRequest) Command() service.CreateAdminCommand {
	return service.CreateAdminCommand{
		Handle:     r.Handle,
		Email:      r.Email,
		Phone:      r.Phone,
		NationalID: r.NationalID,
		Level:      service.AdminLevel(r.Level),
	}
}

// SubscriptionRequest is the body of PUT /admin/accounts/{accountID}/subscription.
type SubscriptionRequest struct {
	Active *bool `json:"active"`
}

func (r *SubscriptionRequest) Validate() error {
	if r.Active == nil {
		return dErrors.New(dErrors.CodeValidation, "active is required")
	}
	return nil
}
