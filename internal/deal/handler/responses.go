package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"provenance/internal/deal/models"
)

type ItemResponse struct {
	AssetID string          `json:"asset_id"`
	Serial  string          `json:"serial"`
	Price   decimal.Decimal `json:"price"`
}

type DealResponse struct {
	ID             string                 `json:"id"`
	Status         string                 `json:"status"`
	Kind           string                 `json:"kind"`
	BuyerID        string                 `json:"buyer_id"`
	SellerID       *string                `json:"seller_id,omitempty"`
	ExternalSeller *ExternalSellerRequest `json:"external_seller,omitempty"`
	TotalAmount    decimal.Decimal        `json:"total_amount"`
	Description    string                 `json:"description,omitempty"`
	ApprovedBy     *string                `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time             `json:"approved_at,omitempty"`
	ApprovalNotes  string                 `json:"approval_notes,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	Items          []ItemResponse         `json:"items"`
}

func FromDeal(d *models.Deal) *DealResponse {
	resp := &DealResponse{
		ID:            d.ID.String(),
		Status:        string(d.Status),
		Kind:          string(d.Kind),
		BuyerID:       d.BuyerID.String(),
		TotalAmount:   d.TotalAmount,
		Description:   d.Description,
		ApprovedAt:    d.ApprovedAt,
		ApprovalNotes: d.ApprovalNotes,
		CreatedAt:     d.CreatedAt,
		CompletedAt:   d.CompletedAt,
		Items:         make([]ItemResponse, 0, len(d.Items)),
	}
	if d.SellerID != nil {
		seller := d.SellerID.String()
		resp.SellerID = &seller
	}
	if d.ExternalSeller != nil {
		resp.ExternalSeller = &ExternalSellerRequest{
			Name:       d.ExternalSeller.Name,
			Phone:      d.ExternalSeller.Phone,
			NationalID: d.ExternalSeller.NationalID,
			Address:    d.ExternalSeller.Address,
		}
	}
	if d.ApprovedBy != nil {
		by := d.ApprovedBy.String()
		resp.ApprovedBy = &by
	}
	for _, item := range d.Items {
		resp.Items = append(resp.Items, ItemResponse{
			AssetID: item.AssetID.String(),
			Serial:  item.Serial,
			Price:   item.Price,
		})
	}
	return resp
}

func FromDeals(deals []*models.Deal) []*DealResponse {
	out := make([]*DealResponse, 0, len(deals))
	for _, d := range deals {
		out = append(out, FromDeal(d))
	}
	return out
}
