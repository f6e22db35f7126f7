package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/meatstock/internal/authz"
	"github.com/odyssey-erp/meatstock/internal/platform/db"
	"github.com/odyssey-erp/meatstock/internal/platform/httpx"
	"github.com/odyssey-erp/meatstock/internal/shared"
)

// IdempotencyHeader carries the client key for create requests.
const IdempotencyHeader = "Idempotency-Key"

// Handler wires HTTP endpoints for the daily ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: newValidator(), authz: mw}
}

// MountRoutes registers ledger routes. Every route requires a bearer token.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.authz.Authenticate)

	r.Get("/today", h.handleToday)
	r.Get("/date/{date}", h.handleByDate)
	r.Get("/history", h.handleHistory)
	r.Get("/stats/summary", h.handleSummary)
	r.Get("/product-types", h.handleProductTypes)
	r.Get("/shop-types", h.handleShopTypes)
	r.Post("/", h.handleUpsert)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/purchases", h.handleAddPurchase)
		r.Put("/purchases/{purchaseID}", h.handleUpdatePurchase)
		r.Delete("/purchases/{purchaseID}", h.handleDeletePurchase)
		r.Post("/transfers", h.handleAddTransfer)
		r.Put("/transfers/{transferID}", h.handleUpdateTransfer)
		r.Delete("/transfers/{transferID}", h.handleDeleteTransfer)
		r.Put("/reconciliation", h.handleReconciliation)
		r.Put("/finalize", h.handleFinalize)
		r.Put("/recalculate", h.handleRecalculate)
		r.With(h.authz.RequireRole(authz.RoleAdmin)).Post("/unfinalize", h.handleUnfinalize)
	})
}

func actorFrom(r *http.Request) Actor {
	id, ok := authz.FromContext(r.Context())
	if !ok {
		return Actor{}
	}
	return Actor{ID: id.UserID, Admin: id.IsAdmin()}
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.GetOrCreate(r.Context(), h.service.Today(), actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleByDate(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.service.GetOrCreate(r.Context(), date, actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	l, err := h.service.Get(r.Context(), id)
	h.respond(w, r, l, err)
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.service.Upsert(r.Context(), in, actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleAddPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	var req PurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	l, err := h.service.AddPurchase(r.Context(), id, req.input(), r.Header.Get(IdempotencyHeader), actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	purchaseID, ok := h.uuidParam(w, r, "purchaseID", ErrPurchaseNotFound)
	if !ok {
		return
	}
	var req PurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	l, err := h.service.UpdatePurchase(r.Context(), id, purchaseID, req.input(), actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	purchaseID, ok := h.uuidParam(w, r, "purchaseID", ErrPurchaseNotFound)
	if !ok {
		return
	}
	l, err := h.service.DeletePurchase(r.Context(), id, purchaseID, actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleAddTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	l, err := h.service.AddTransfer(r.Context(), id, req.input(), r.Header.Get(IdempotencyHeader), actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleUpdateTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	transferID, ok := h.uuidParam(w, r, "transferID", ErrTransferNotFound)
	if !ok {
		return
	}
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	l, err := h.service.UpdateTransfer(r.Context(), id, transferID, req.input(), actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	transferID, ok := h.uuidParam(w, r, "transferID", ErrTransferNotFound)
	if !ok {
		return
	}
	l, err := h.service.DeleteTransfer(r.Context(), id, transferID, actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	var req ReconciliationRequest
	if !h.decode(w, r, &req) {
		return
	}
	l, err := h.service.SaveReconciliation(r.Context(), id, req.input(), actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	l, err := h.service.Finalize(r.Context(), id, actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleUnfinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	l, err := h.service.Unfinalize(r.Context(), id, actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	l, err := h.service.Recalculate(r.Context(), id, actorFrom(r))
	h.respond(w, r, l, err)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	var filter HistoryFilter
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		d, err := ParseDate(raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		*p.dst = d
	}
	items, err := h.service.History(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) handleProductTypes(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Catalog().ProductNames())
}

func (h *Handler) handleShopTypes(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Catalog().ShopNames())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		h.fail(w, r, err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.fail(w, r, validationError(err))
		return false
	}
	return true
}

func (h *Handler) ledgerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return h.uuidParam(w, r, "id", ErrLedgerNotFound)
}

func (h *Handler) uuidParam(w http.ResponseWriter, r *http.Request, name string, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.fail(w, r, notFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, l Ledger, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, l)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		httpx.Problem(w, http.StatusBadRequest, "Insufficient Stock", stockErr.Error())
	case errors.Is(err, ErrLedgerNotFound), errors.Is(err, ErrPurchaseNotFound), errors.Is(err, ErrTransferNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNotReconciled), errors.Is(err, ErrLedgerFinalized), errors.Is(err, ErrNotFinalized),
		errors.Is(err, ErrNextDayFinalized), errors.Is(err, ErrOpeningStockLocked):
		httpx.Problem(w, http.StatusBadRequest, "Precondition Failed", err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, httpx.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict), errors.Is(err, ErrDuplicateDate):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrLockTimeout), errors.Is(err, db.ErrConflict):
		w.Header().Set("Retry-After", "1")
		httpx.Problem(w, http.StatusServiceUnavailable, "Busy", err.Error())
	default:
		h.logger.Error("ledger request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
