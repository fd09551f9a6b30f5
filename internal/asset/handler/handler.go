package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"provenance/internal/asset/cache"
	"provenance/internal/asset/models"
	"provenance/internal/asset/service"
	ownership "provenance/internal/ownership/models"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks Service,OwnershipService

// Service defines asset registry operations.
type Service interface {
	Register(ctx context.Context, actorID id.AccountID, cmd service.RegisterCommand) (*models.Asset, error)
	UpdateStatus(ctx context.Context, actorID id.AccountID, assetID id.AssetID, target models.Status) (*models.Asset, error)
	History(ctx context.Context, requesterID id.AccountID, assetID id.AssetID) ([]models.StatusHistoryEntry, error)
	Get(ctx context.Context, requesterID id.AccountID, assetID id.AssetID) (*models.Asset, error)
	CanBeSold(ctx context.Context, assetID id.AssetID) (bool, error)
	Verify(ctx context.Context, serial string) (*cache.Verification, error)
	ListByOwner(ctx context.Context, requesterID, ownerID id.AccountID) ([]*models.Asset, error)
	StolenReport(ctx context.Context, actorID id.AccountID) ([]*models.Asset, error)
	Search(ctx context.Context, actorID id.AccountID, field storage.AssetField, value string) ([]*models.Asset, error)
}

// OwnershipService exposes the ownership ledger of an asset.
type OwnershipService interface {
	History(ctx context.Context, requesterID id.AccountID, assetID id.AssetID) ([]ownership.Entry, error)
	Recent(ctx context.Context, requesterID id.AccountID, assetID id.AssetID) ([]ownership.Entry, error)
}

type Handler struct {
	service   Service
	ownership OwnershipService
	logger    *slog.Logger
}

func New(service Service, ownership OwnershipService, logger *slog.Logger) *Handler {
	return &Handler{service: service, ownership: ownership, logger: logger}
}

// RegisterPublic mounts the serial verification lookup.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{serial}", h.HandleVerify)
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/assets", h.HandleRegister)
	r.Get("/assets", h.HandleListByOwner)
	r.Get("/assets/{assetID}", h.HandleGet)
	r.Put("/assets/{assetID}/status", h.HandleUpdateStatus)
	r.Get("/assets/{assetID}/status-history", h.HandleStatusHistory)
	r.Get("/assets/{assetID}/ownership", h.HandleOwnership)
	r.Get("/assets/{assetID}/saleable", h.HandleSaleable)
	r.Get("/admin/assets/stolen", h.HandleStolenReport)
	r.Get("/admin/assets/search", h.HandleSearch)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serial := chi.URLParam(r, "serial")
	v, err := h.service.Verify(ctx, serial)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "serial verification failed", err, "serial", serial)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[RegisterAssetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	a, err := h.service.Register(ctx, requestcontext.AccountID(ctx), req.Command())
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "asset registration failed", err, "serial", req.Serial)
		return
	}
	h.logger.InfoContext(ctx, "asset registered",
		"request_id", requestID,
		"asset_id", a.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromAsset(a))
}

// HandleListByOwner lists the caller's assets, or another owner's via ?owner= for administrators.
func (h *Handler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requesterID := requestcontext.AccountID(ctx)
	ownerID := requesterID
	if raw := r.URL.Query().Get("owner"); raw != "" {
		parsed, err := id.ParseAccountID(raw)
		if err != nil {
			httputil.WriteServiceError(ctx, w, h.logger, "invalid owner id", err)
			return
		}
		ownerID = parsed
	}
	assets, err := h.service.ListByOwner(ctx, requesterID, ownerID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list assets", err, "owner_id", ownerID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAssets(assets))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	a, err := h.service.Get(ctx, requestcontext.AccountID(ctx), assetID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to load asset", err, "asset_id", assetID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAsset(a))
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.UpdateStatus(ctx, requestcontext.AccountID(ctx), assetID, req.parsed)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "status change failed", err,
			"asset_id", assetID,
			"target", req.parsed,
		)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAsset(a))
}

func (h *Handler) HandleStatusHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	entries, err := h.service.History(ctx, requestcontext.AccountID(ctx), assetID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to load status history", err, "asset_id", assetID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStatusHistory(entries))
}

// HandleOwnership returns the visible ownership ledger; ?recent=true limits it
// to the latest transfers.
func (h *Handler) HandleOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	recent := false
	if raw := r.URL.Query().Get("recent"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteServiceError(ctx, w, h.logger, "invalid recent flag",
				dErrors.New(dErrors.CodeBadRequest, "recent must be a boolean"))
			return
		}
		recent = v
	}

	lookup := h.ownership.History
	if recent {
		lookup = h.ownership.Recent
	}
	entries, err := lookup(ctx, requestcontext.AccountID(ctx), assetID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to load ownership history", err, "asset_id", assetID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOwnership(entries))
}

func (h *Handler) HandleSaleable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	saleable, err := h.service.CanBeSold(ctx, assetID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "saleability check failed", err, "asset_id", assetID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"can_be_sold": saleable})
}

func (h *Handler) HandleStolenReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assets, err := h.service.StolenReport(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to build stolen report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAssets(assets))
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	assets, err := h.service.Search(ctx, requestcontext.AccountID(ctx),
		storage.AssetField(query.Get("by")), query.Get("value"))
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "asset search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAssets(assets))
}

func (h *Handler) assetParam(w http.ResponseWriter, r *http.Request) (id.AssetID, bool) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteServiceError(r.Context(), w, h.logger, "invalid asset id", err)
		return id.AssetID{}, false
	}
	return assetID, true
}
