package handler

import (
	"strings"

	"github.com/shopspring/decimal"

	"provenance/internal/deal/models"
	"provenance/internal/deal/service"
	dErrors "provenance/pkg/domain-errors"
)

const maxItems = 50

type ItemRequest struct {
	Serial string          `json:"serial"`
	Price  decimal.Decimal `json:"price"`
}

type ExternalSellerRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
	Address    string `json:"address"`
}

// CreateDealRequest is the body for every deal creation route. Which fields
// apply depends on the route.
type CreateDealRequest struct {
	Kind           string                 `json:"kind"`
	BuyerHandle    string                 `json:"buyer_handle"`
	SellerHandle   string                 `json:"seller_handle"`
	ExternalSeller *ExternalSellerRequest `json:"external_seller"`
	Items          []ItemRequest          `json:"items"`
	Description    string                 `json:"description"`

	kind models.Kind
}

func (r *CreateDealRequest) Validate() error {
	if len(r.Items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one item is required")
	}
	if len(r.Items) > maxItems {
		return dErrors.New(dErrors.CodeValidation, "too many items")
	}
	r.BuyerHandle = strings.TrimSpace(r.BuyerHandle)
	r.SellerHandle = strings.TrimSpace(r.SellerHandle)
	r.Description = strings.TrimSpace(r.Description)
	for i := range r.Items {
		r.Items[i].Serial = strings.TrimSpace(r.Items[i].Serial)
	}
	if r.ExternalSeller != nil {
		r.ExternalSeller.Name = strings.TrimSpace(r.ExternalSeller.Name)
		r.ExternalSeller.Phone = strings.TrimSpace(r.ExternalSeller.Phone)
		r.ExternalSeller.NationalID = strings.TrimSpace(r.ExternalSeller.NationalID)
		r.ExternalSeller.Address = strings.TrimSpace(r.ExternalSeller.Address)
	}
	if kind := strings.ToLower(strings.TrimSpace(r.Kind)); kind != "" {
		parsed, err := models.ParseKind(kind)
		if err != nil {
			return err
		}
		r.kind = parsed
	}
	return nil
}

func (r *CreateDealRequest) Command() service.CreateCommand {
	cmd := service.CreateCommand{
		Kind:         r.kind,
		BuyerHandle:  r.BuyerHandle,
		SellerHandle: r.SellerHandle,
		Description:  r.Description,
		Items:        make([]service.ItemRequest, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		cmd.Items = append(cmd.Items, service.ItemRequest{Serial: item.Serial, Price: item.Price})
	}
	if r.ExternalSeller != nil {
		cmd.ExternalSeller = &models.ExternalSeller{
			Name:       r.ExternalSeller.Name,
			Phone:      r.ExternalSeller.Phone,
			NationalID: r.ExternalSeller.NationalID,
			Address:    r.ExternalSeller.Address,
		}
	}
	return cmd
}

// DecisionRequest carries optional administrator notes.
type DecisionRequest struct {
	Notes string `json:"notes"`
}

func (r *DecisionRequest) Validate() error {
	r.Notes = strings.TrimSpace(r.Notes)
	if len(r.Notes) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "notes must be at most 2000 characters")
	}
	return nil
}
