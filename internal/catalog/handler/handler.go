package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"provenance/internal/catalog/models"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks Service

// Service defines catalog operations.
type Service interface {
	CreateCategory(ctx context.Context, actorID id.AccountID, name string) (*models.Category, error)
	CreateBrand(ctx context.Context, actorID id.AccountID, name string) (*models.Brand, error)
	RenameBrand(ctx context.Context, actorID id.AccountID, brandID id.BrandID, name string) (*models.Brand, error)
	DeleteBrand(ctx context.Context, actorID id.AccountID, brandID id.BrandID) error
	ListCategories(ctx context.Context) ([]*models.Category, error)
	ListBrands(ctx context.Context) ([]*models.Brand, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/categories", h.HandleListCategories)
	r.Get("/brands", h.HandleListBrands)
	r.Post("/admin/categories", h.HandleCreateCategory)
	r.Post("/admin/brands", h.HandleCreateBrand)
	r.Put("/admin/brands/{brandID}", h.HandleRenameBrand)
	r.Delete("/admin/brands/{brandID}", h.HandleDeleteBrand)
}

// NameRequest is the body for creating a category or a brand, or renaming a brand.
type NameRequest struct {
	Name string `json:"name"`
}

func (r *NameRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if len(r.Name) > 100 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 100 characters")
	}
	return nil
}

type CatalogEntryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.service.ListCategories(ctx)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list categories", err)
		return
	}
	out := make([]CatalogEntryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CatalogEntryResponse{ID: c.ID.String(), Name: c.Name, CreatedAt: c.CreatedAt})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleListBrands(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brands, err := h.service.ListBrands(ctx)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list brands", err)
		return
	}
	out := make([]CatalogEntryResponse, 0, len(brands))
	for _, b := range brands {
		out = append(out, fromBrand(b))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[NameRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	category, err := h.service.CreateCategory(ctx, requestcontext.AccountID(ctx), req.Name)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "category creation failed", err, "name", req.Name)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CatalogEntryResponse{
		ID: category.ID.String(), Name: category.Name, CreatedAt: category.CreatedAt,
	})
}

func (h *Handler) HandleCreateBrand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[NameRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	brand, err := h.service.CreateBrand(ctx, requestcontext.AccountID(ctx), req.Name)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "brand creation failed", err, "name", req.Name)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromBrand(brand))
}

func (h *Handler) HandleRenameBrand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brandID, ok := h.brandParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[NameRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	brand, err := h.service.RenameBrand(ctx, requestcontext.AccountID(ctx), brandID, req.Name)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "brand rename failed", err, "brand_id", brandID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromBrand(brand))
}

func (h *Handler) HandleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brandID, ok := h.brandParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteBrand(ctx, requestcontext.AccountID(ctx), brandID); err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "brand deletion failed", err, "brand_id", brandID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) brandParam(w http.ResponseWriter, r *http.Request) (id.BrandID, bool) {
	brandID, err := id.ParseBrandID(chi.URLParam(r, "brandID"))
	if err != nil {
		httputil.WriteServiceError(r.Context(), w, h.logger, "invalid brand id", err)
		return id.BrandID{}, false
	}
	return brandID, true
}

func fromBrand(b *models.Brand) CatalogEntryResponse {
	return CatalogEntryResponse{ID: b.ID.String(), Name: b.Name, CreatedAt: b.CreatedAt}
}
