package handler

import (
	"strings"

	"provenance/internal/asset/models"
	"provenance/internal/asset/service"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// RegisterAssetRequest is the body of POST /assets.
type RegisterAssetRequest struct {
	Name       string `json:"name"`
	Serial     string `json:"serial"`
	CategoryID string `json:"category_id"`
	BrandID    string `json:"brand_id"`

	categoryID id.CategoryID
	brandID    id.BrandID
}

func (r *RegisterAssetRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Serial = strings.TrimSpace(r.Serial)
	if len(r.Name) > 200 || len(r.Serial) > 100 {
		return dErrors.New(dErrors.CodeValidation, "field exceeds maximum length")
	}
	categoryID, err := id.ParseCategoryID(strings.TrimSpace(r.CategoryID))
	if err != nil {
		return err
	}
	brandID, err := id.ParseBrandID(strings.TrimSpace(r.BrandID))
	if err != nil {
		return err
	}
	r.categoryID, r.brandID = categoryID, brandID
	return nil
}

func (r *RegisterAssetRequest) Command() service.RegisterCommand {
	return service.RegisterCommand{
		Name:       r.Name,
		Serial:     r.Serial,
		CategoryID: r.categoryID,
		BrandID:    r.brandID,
	}
}

// UpdateStatusRequest is the body of PUT /assets/{assetID}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`

	parsed models.Status
}

func (r *UpdateStatusRequest) Validate() error {
	status, err := models.ParseStatus(strings.ToLower(strings.TrimSpace(r.Status)))
	if err != nil {
		return err
	}
	r.parsed = status
	return nil
}
