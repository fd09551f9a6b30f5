package handler

import (
	"time"

	"provenance/internal/identity/models"
)

type AccountResponse struct {
	ID                 string    `json:"id"`
	Handle             string    `json:"handle"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	NationalID         string    `json:"national_id"`
	ShopName           string    `json:"shop_name,omitempty"`
	Role               string    `json:"role"`
	ShopkeeperApproved *bool     `json:"shopkeeper_approved,omitempty"`
	CanGrantAdmin      *bool     `json:"can_grant_admin,omitempty"`
	HasSubscription    bool      `json:"has_subscription"`
	CreatedAt          time.Time `json:"created_at"`
}

func FromAccount(a *models.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:              a.ID.String(),
		Handle:          a.Handle,
		Email:           a.Email,
		Phone:           a.Phone,
		NationalID:      a.NationalID,
		ShopName:        a.ShopName,
		Role:            string(a.Role.Kind()),
		HasSubscription: a.HasSubscription,
		CreatedAt:       a.CreatedAt,
	}
	switch role := a.Role.(type) {
	case models.Shopkeeper:
		resp.ShopkeeperApproved = &role.Approved
	case models.Admin:
		resp.CanGrantAdmin = &role.CanGrantAdmin
	}
	return resp
}

func FromAccounts(accounts []*models.Account) []*AccountResponse {
	out := make([]*AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, FromAccount(a))
	}
	return out
}

// EligibilityResponse reports what the account may do right now.
type EligibilityResponse struct {
	AccountID         string     `json:"account_id"`
	Owned             int        `json:"owned"`
	Quota             *int       `json:"quota"`
	CanRegister       bool       `json:"can_register"`
	RegisterDenial    string     `json:"register_denial,omitempty"`
	CanInitiateSale   bool       `json:"can_initiate_sale"`
	SaleDenial        string     `json:"sale_denial,omitempty"`
	SaleAvailableFrom *time.Time `json:"sale_available_from,omitempty"`
}

func FromEligibility(a *models.Account, e *models.Eligibility) *EligibilityResponse {
	return &EligibilityResponse{
		AccountID:         a.ID.String(),
		Owned:             e.Owned,
		Quota:             e.Quota,
		CanRegister:       e.CanRegister,
		RegisterDenial:    string(e.RegisterDenial),
		CanInitiateSale:   e.CanInitiateSale,
		SaleDenial:        string(e.SaleDenial),
		SaleAvailableFrom: e.SaleAvailableFrom,
	}
}
