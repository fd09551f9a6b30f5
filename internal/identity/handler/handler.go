package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"provenance/internal/identity/models"
	"provenance/internal/identity/service"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks Service

// Service defines the identity operations exposed over HTTP.
type Service interface {
	RegisterAccount(ctx context.Context, cmd service.RegisterAccountCommand) (*models.Account, error)
	CreateAdmin(ctx context.Context, actorID id.AccountID, cmd service.CreateAdminCommand) (*models.Account, error)
	ApproveShopkeeper(ctx context.Context, actorID, target id.AccountID) (*models.Account, error)
	RejectShopkeeper(ctx context.Context, actorID, target id.AccountID) (*models.Account, error)
	SetSubscription(ctx context.Context, actorID, target id.AccountID, active bool) (*models.Account, error)
	GrantAdminPrivilege(ctx context.Context, actorID, target id.AccountID) (*models.Account, error)
	GetAccount(ctx context.Context, requesterID, target id.AccountID) (*models.Account, error)
	Eligibility(ctx context.Context, requesterID, target id.AccountID) (*models.Account, *models.Eligibility, error)
	ListAccounts(ctx context.Context, actorID id.AccountID, filter storage.AccountFilter) ([]*models.Account, error)
	ListPendingShopkeepers(ctx context.Context, actorID id.AccountID) ([]*models.Account, error)
	FindAccounts(ctx context.Context, actorID id.AccountID, field storage.AccountField, value string) ([]*models.Account, error)
}

// Handler serves account endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated signup route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/accounts", h.HandleRegister)
}

// Register mounts routes that require an authenticated account.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.Get("/me/eligibility", h.HandleMyEligibility)
	r.Get("/accounts/{accountID}", h.HandleGetAccount)
	r.Get("/accounts/{accountID}/eligibility", h.HandleEligibility)

	r.Get("/admin/accounts", h.HandleListAccounts)
	r.Get("/admin/accounts/search", h.HandleFindAccounts)
	r.Put("/admin/accounts/{accountID}/subscription", h.HandleSetSubscription)
	r.Get("/admin/shopkeepers/pending", h.HandleListPending)
	r.Post("/admin/shopkeepers/{accountID}/approve", h.HandleApproveShopkeeper)
	r.Post("/admin/shopkeepers/{accountID}/reject", h.HandleRejectShopkeeper)
	r.Post("/admin/admins", h.HandleCreateAdmin)
	r.Post("/admin/admins/{accountID}/grant", h.HandleGrantAdmin)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterAccountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	account, err := h.service.RegisterAccount(ctx, req.Command())
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "account registration failed", err, "handle", req.Handle)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromAccount(account))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := requestcontext.AccountID(ctx)
	account, err := h.service.GetAccount(ctx, actorID, actorID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to load own account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccount(account))
}

func (h *Handler) HandleMyEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := requestcontext.AccountID(ctx)
	h.writeEligibility(ctx, w, actorID, actorID)
}

func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	account, err := h.service.GetAccount(ctx, requestcontext.AccountID(ctx), target)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to load account", err, "account_id", target)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccount(account))
}

func (h *Handler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	h.writeEligibility(ctx, w, requestcontext.AccountID(ctx), target)
}

func (h *Handler) writeEligibility(ctx context.Context, w http.ResponseWriter, requesterID, target id.AccountID) {
	account, eligibility, err := h.service.Eligibility(ctx, requesterID, target)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to compute eligibility", err, "account_id", target)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEligibility(account, eligibility))
}

func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	filter := storage.AccountFilter{Text: query.Get("q")}
	if role := query.Get("role"); role != "" {
		kind, err := models.ParseRoleKind(role)
		if err != nil {
			httputil.WriteServiceError(ctx, w, h.logger, "invalid role filter", err)
			return
		}
		filter.Role = kind
	}
	if pending := query.Get("pending"); pending != "" {
		v, err := strconv.ParseBool(pending)
		if err != nil {
			httputil.WriteServiceError(ctx, w, h.logger, "invalid pending filter",
				dErrors.New(dErrors.CodeBadRequest, "pending must be a boolean"))
			return
		}
		filter.PendingOnly = v
	}

	accounts, err := h.service.ListAccounts(ctx, requestcontext.AccountID(ctx), filter)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list accounts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccounts(accounts))
}

func (h *Handler) HandleFindAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	accounts, err := h.service.FindAccounts(ctx, requestcontext.AccountID(ctx),
		storage.AccountField(query.Get("by")), query.Get("value"))
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "account search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccounts(accounts))
}

func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.service.ListPendingShopkeepers(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list pending shopkeepers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccounts(accounts))
}

func (h *Handler) HandleApproveShopkeeper(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "shopkeeper approval failed", h.service.ApproveShopkeeper)
}

func (h *Handler) HandleRejectShopkeeper(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "shopkeeper rejection failed", h.service.RejectShopkeeper)
}

func (h *Handler) HandleGrantAdmin(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "admin grant failed", h.service.GrantAdminPrivilege)
}

func (h *Handler) HandleSetSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubscriptionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	account, err := h.service.SetSubscription(ctx, requestcontext.AccountID(ctx), target, *req.Active)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "subscription update failed", err, "account_id", target)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccount(account))
}

func (h *Handler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateAdminRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	account, err := h.service.CreateAdmin(ctx, requestcontext.AccountID(ctx), req.Command())
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "admin creation failed", err, "handle", req.Handle)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromAccount(account))
}

type accountMutation func(ctx context.Context, actorID, target id.AccountID) (*models.Account, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, failure string, fn accountMutation) {
	ctx := r.Context()
	target, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	account, err := fn(ctx, requestcontext.AccountID(ctx), target)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, failure, err, "account_id", target)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccount(account))
}

func (h *Handler) accountParam(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteServiceError(r.Context(), w, h.logger, "invalid account id", err)
		return id.AccountID{}, false
	}
	return accountID, true
}
