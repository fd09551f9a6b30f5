package handler

import (
	"time"

	"provenance/internal/asset/models"
	ownership "provenance/internal/ownership/models"
)

type AssetResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Serial     string    `json:"serial"`
	Status     string    `json:"status"`
	OwnerID    string    `json:"owner_id"`
	CategoryID string    `json:"category_id"`
	BrandID    string    `json:"brand_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func FromAsset(a *models.Asset) *AssetResponse {
	return &AssetResponse{
		ID:         a.ID.String(),
		Name:       a.Name,
		Serial:     a.Serial,
		Status:     string(a.Status),
		OwnerID:    a.OwnerID.String(),
		CategoryID: a.CategoryID.String(),
		BrandID:    a.BrandID.String(),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func FromAssets(assets []*models.Asset) []*AssetResponse {
	out := make([]*AssetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, FromAsset(a))
	}
	return out
}

type StatusHistoryResponse struct {
	PreviousStatus *string   `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ChangedAt      time.Time `json:"changed_at"`
	ChangedBy      *string   `json:"changed_by"`
}

func FromStatusHistory(entries []models.StatusHistoryEntry) []StatusHistoryResponse {
	out := make([]StatusHistoryResponse, 0, len(entries))
	for _, e := range entries {
		resp := StatusHistoryResponse{NewStatus: string(e.NewStatus), ChangedAt: e.ChangedAt}
		if e.PreviousStatus != nil {
			prev := string(*e.PreviousStatus)
			resp.PreviousStatus = &prev
		}
		if e.ChangedBy != nil {
			by := e.ChangedBy.String()
			resp.ChangedBy = &by
		}
		out = append(out, resp)
	}
	return out
}

type OwnershipEntryResponse struct {
	PreviousOwnerID *string   `json:"previous_owner_id"`
	NewOwnerID      string    `json:"new_owner_id"`
	DealID          *string   `json:"deal_id,omitempty"`
	Kind            string    `json:"kind"`
	TransferredAt   time.Time `json:"transferred_at"`
}

func FromOwnership(entries []ownership.Entry) []OwnershipEntryResponse {
	out := make([]OwnershipEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := OwnershipEntryResponse{
			NewOwnerID:    e.NewOwnerID.String(),
			Kind:          string(e.Kind),
			TransferredAt: e.TransferredAt,
		}
		if e.PreviousOwnerID != nil {
			prev := e.PreviousOwnerID.String()
			resp.PreviousOwnerID = &prev
		}
		if e.DealID != nil {
			deal := e.DealID.String()
			resp.DealID = &deal
		}
		out = append(out, resp)
	}
	return out
}
