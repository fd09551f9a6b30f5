package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"provenance/internal/deal/models"
	"provenance/internal/deal/service"
	id "provenance/pkg/domain"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks Service

// Service defines deal workflow operations.
type Service interface {
	CreateDeal(ctx context.Context, actorID id.AccountID, cmd service.CreateCommand) (*models.Deal, error)
	CreatePurchase(ctx context.Context, actorID id.AccountID, cmd service.CreateCommand) (*models.Deal, error)
	CreateTransfer(ctx context.Context, actorID id.AccountID, cmd service.CreateCommand) (*models.Deal, error)
	CreateUnified(ctx context.Context, actorID id.AccountID, cmd service.CreateCommand) (*models.Deal, error)
	Approve(ctx context.Context, actorID id.AccountID, dealID id.DealID, notes string) (*models.Deal, error)
	Reject(ctx context.Context, actorID id.AccountID, dealID id.DealID, notes string) (*models.Deal, error)
	Complete(ctx context.Context, actorID id.AccountID, dealID id.DealID) (*models.Deal, error)
	Cancel(ctx context.Context, actorID id.AccountID, dealID id.DealID) (*models.Deal, error)
	Get(ctx context.Context, requesterID id.AccountID, dealID id.DealID) (*models.Deal, error)
	ListForAccount(ctx context.Context, requesterID, accountID id.AccountID) ([]*models.Deal, error)
	ListByStatus(ctx context.Context, actorID id.AccountID, status models.Status) ([]*models.Deal, error)
	Search(ctx context.Context, actorID id.AccountID, query string) ([]*models.Deal, error)
}

// Handler serves deal endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/deals", h.create("deal", h.service.CreateDeal))
	r.Post("/deals/purchases", h.create("purchase", h.service.CreatePurchase))
	r.Post("/deals/transfers", h.create("transfer", h.service.CreateTransfer))
	r.Post("/deals/unified", h.create("unified deal", h.service.CreateUnified))
	r.Get("/deals", h.HandleList)
	r.Get("/deals/{dealID}", h.HandleGet)
	r.Post("/deals/{dealID}/cancel", h.HandleCancel)

	r.Get("/admin/deals", h.HandleListByStatus)
	r.Get("/admin/deals/search", h.HandleSearch)
	r.Post("/admin/deals/{dealID}/approve", h.decide("approval", h.service.Approve))
	r.Post("/admin/deals/{dealID}/reject", h.decide("rejection", h.service.Reject))
	r.Post("/admin/deals/{dealID}/complete", h.HandleComplete)
}

type createFunc func(ctx context.Context, actorID id.AccountID, cmd service.CreateCommand) (*models.Deal, error)

func (h *Handler) create(label string, fn createFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		req, ok := httputil.DecodeAndPrepare[CreateDealRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		d, err := fn(ctx, requestcontext.AccountID(ctx), req.Command())
		if err != nil {
			httputil.WriteServiceError(ctx, w, h.logger, label+" creation failed", err, "items", len(req.Items))
			return
		}
		h.logger.InfoContext(ctx, label+" created",
			"request_id", requestID,
			"deal_id", d.ID,
			"status", d.Status,
		)
		httputil.WriteJSON(w, http.StatusCreated, FromDeal(d))
	}
}

type decisionFunc func(ctx context.Context, actorID id.AccountID, dealID id.DealID, notes string) (*models.Deal, error)

func (h *Handler) decide(label string, fn decisionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		dealID, ok := h.dealParam(w, r)
		if !ok {
			return
		}
		notes := ""
		if r.ContentLength != 0 {
			req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
			if !ok {
				return
			}
			notes = req.Notes
		}
		d, err := fn(ctx, requestcontext.AccountID(ctx), dealID, notes)
		if err != nil {
			httputil.WriteServiceError(ctx, w, h.logger, "deal "+label+" failed", err, "deal_id", dealID)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromDeal(d))
	}
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dealID, ok := h.dealParam(w, r)
	if !ok {
		return
	}
	d, err := h.service.Complete(ctx, requestcontext.AccountID(ctx), dealID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "deal completion failed", err, "deal_id", dealID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDeal(d))
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dealID, ok := h.dealParam(w, r)
	if !ok {
		return
	}
	d, err := h.service.Cancel(ctx, requestcontext.AccountID(ctx), dealID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "deal cancellation failed", err, "deal_id", dealID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDeal(d))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dealID, ok := h.dealParam(w, r)
	if !ok {
		return
	}
	d, err := h.service.Get(ctx, requestcontext.AccountID(ctx), dealID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to load deal", err, "deal_id", dealID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDeal(d))
}

// HandleList returns deals where the caller, or ?account= for administrators,
// is buyer or seller.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requesterID := requestcontext.AccountID(ctx)
	accountID := requesterID
	if raw := r.URL.Query().Get("account"); raw != "" {
		parsed, err := id.ParseAccountID(raw)
		if err != nil {
			httputil.WriteServiceError(ctx, w, h.logger, "invalid account id", err)
			return
		}
		accountID = parsed
	}
	deals, err := h.service.ListForAccount(ctx, requesterID, accountID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list deals", err, "account_id", accountID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDeals(deals))
}

func (h *Handler) HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("status")
	if raw == "" {
		raw = string(models.StatusPending)
	}
	status, err := models.ParseStatus(raw)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "invalid status filter", err)
		return
	}
	deals, err := h.service.ListByStatus(ctx, requestcontext.AccountID(ctx), status)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list deals", err, "status", status)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDeals(deals))
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deals, err := h.service.Search(ctx, requestcontext.AccountID(ctx), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "deal search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDeals(deals))
}

func (h *Handler) dealParam(w http.ResponseWriter, r *http.Request) (id.DealID, bool) {
	dealID, err := id.ParseDealID(chi.URLParam(r, "dealID"))
	if err != nil {
		httputil.WriteServiceError(r.Context(), w, h.logger, "invalid deal id", err)
		return id.DealID{}, false
	}
	return dealID, true
}
