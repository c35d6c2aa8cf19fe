/*
handlers.go - HTTP API handlers for the savings engine

PURPOSE:
  Exposes the savings engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Savers:
    GET    /api/savers                     List savers
    POST   /api/savers                     Register a saver
    GET    /api/savers/{id}                Saver details
    GET    /api/savers/{id}/subscriptions  Saver's subscriptions
    GET    /api/savers/{id}/summary        Aggregated progress (home screen)

  Phones:
    GET    /api/phones                     In-stock catalog, by popularity
    GET    /api/phones/{id}                Phone details
    GET    /api/phones/search/{query}      Brand/model substring search
    GET    /api/phones/category/{category} Category listing, cheapest first
    POST   /api/phones/seed                Load the built-in demo catalog

  Subscriptions:
    POST   /api/subscriptions              Open a subscription
    GET    /api/subscriptions/{id}         Snapshot
    GET    /api/subscriptions/{id}/progress Progress summary
    GET    /api/subscriptions/{id}/payments Applied payment history
    POST   /api/subscriptions/{id}/payments Manual top-up (idempotent)
    PUT    /api/subscriptions/{id}         Change amount/cadence
    POST   /api/subscriptions/{id}/pause   Suspend
    POST   /api/subscriptions/{id}/resume  Reactivate
    DELETE /api/subscriptions/{id}         Cancel (soft; history kept)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid state transitions, invalid input
  - 404: Saver/phone/subscription not found
  - 409: Duplicate payment key, email taken, concurrent update exhausted
  - 500: Internal errors (including the zero-target engine guard)

SECURITY NOTE:
  No authentication. The product's auth surface is out of scope here; all
  endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: The background payment collaborator
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kopichu/savings-engine/accrual"
	"github.com/kopichu/savings-engine/catalog"
	"github.com/kopichu/savings-engine/subscription"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store subscription.Store
	Subs  *subscription.Service

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewHandler creates a new handler over the given store.
func NewHandler(store subscription.Store) *Handler {
	return &Handler{
		Store: store,
		Subs:  subscription.NewService(store),
		Now:   time.Now,
	}
}

// =============================================================================
// SAVER HANDLERS
// =============================================================================

func (h *Handler) CreateSaver(w http.ResponseWriter, r *http.Request) {
	var req CreateSaverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	saver := subscription.Saver{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: h.Now(),
	}
	if err := h.Store.CreateSaver(r.Context(), saver); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaverDTO(saver))
}

func (h *Handler) GetSaver(w http.ResponseWriter, r *http.Request) {
	saver, err := h.Store.GetSaver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaverDTO(saver))
}

func (h *Handler) ListSavers(w http.ResponseWriter, r *http.Request) {
	savers, err := h.Store.ListSavers(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]SaverDTO, len(savers))
	for i, s := range savers {
		out[i] = toSaverDTO(s)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListSaverSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Subs.ListForSaver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]SubscriptionDTO, len(subs))
	for i, sub := range subs {
		out[i] = toSubscriptionDTO(sub)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSaverSummary aggregates every subscription with its progress. This is
// the home-screen payload; all derived numbers come from the progress
// calculator so the client never re-does the math.
func (h *Handler) GetSaverSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	saverID := chi.URLParam(r, "id")

	saver, err := h.Store.GetSaver(ctx, saverID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	subs, err := h.Subs.ListForSaver(ctx, saverID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	now := h.Now()
	summary := SaverSummaryDTO{
		Saver:         toSaverDTO(saver),
		Subscriptions: make([]SubscriptionWithProgressDTO, 0, len(subs)),
	}
	totalInvested := accrual.Zero
	for _, sub := range subs {
		progress, err := accrual.Summarize(sub.Plan, sub.Ledger, now)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		totalInvested = totalInvested.Add(sub.Ledger.TotalPaid)
		summary.Subscriptions = append(summary.Subscriptions, SubscriptionWithProgressDTO{
			Subscription: toSubscriptionDTO(sub),
			Progress:     toProgressDTO(progress),
		})
	}
	summary.TotalInvested = totalInvested.Float64()
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// PHONE HANDLERS
// =============================================================================

func (h *Handler) ListPhones(w http.ResponseWriter, r *http.Request) {
	phones, err := h.Store.ListPhones(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhoneDTOs(catalog.InStockByPopularity(phones)))
}

func (h *Handler) GetPhone(w http.ResponseWriter, r *http.Request) {
	phone, err := h.Store.GetPhone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhoneDTO(phone))
}

func (h *Handler) SearchPhones(w http.ResponseWriter, r *http.Request) {
	phones, err := h.Store.ListPhones(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhoneDTOs(catalog.Search(phones, chi.URLParam(r, "query"))))
}

func (h *Handler) ListPhonesByCategory(w http.ResponseWriter, r *http.Request) {
	category := catalog.Category(chi.URLParam(r, "category"))
	if !category.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown category", nil)
		return
	}
	phones, err := h.Store.ListPhones(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhoneDTOs(catalog.ByCategory(phones, category)))
}

func (h *Handler) SeedPhones(w http.ResponseWriter, r *http.Request) {
	phones := catalog.DefaultPhones()
	if err := h.Store.PutPhones(r.Context(), phones); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SeedResponse{Seeded: len(phones)})
}

// =============================================================================
// SUBSCRIPTION HANDLERS
// =============================================================================

func (h *Handler) OpenSubscription(w http.ResponseWriter, r *http.Request) {
	var req OpenSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	cadence, amount, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	sub, err := h.Subs.Open(r.Context(), subscription.OpenParams{
		SaverID: req.SaverID,
		PhoneID: req.PhoneID,
		Cadence: cadence,
		Amount:  amount,
	}, h.Now())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionDTO(sub))
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Subs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

func (h *Handler) GetSubscriptionProgress(w http.ResponseWriter, r *http.Request) {
	sub, progress, err := h.Subs.Progress(r.Context(), chi.URLParam(r, "id"), h.Now())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubscriptionWithProgressDTO{
		Subscription: toSubscriptionDTO(sub),
		Progress:     toProgressDTO(progress),
	})
}

func (h *Handler) ListSubscriptionPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Subs.Payments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		out[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	sub, err := h.Subs.RecordPayment(r.Context(), chi.URLParam(r, "id"),
		"manual:"+req.PaymentID, amount, subscription.SourceManual, h.Now())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	paymentsApplied.WithLabelValues(string(subscription.SourceManual)).Inc()
	writeJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

func (h *Handler) UpdateSubscriptionPlan(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	cadence, amount, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	sub, err := h.Subs.ChangePlan(r.Context(), chi.URLParam(r, "id"), amount, cadence, h.Now())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

func (h *Handler) PauseSubscription(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Subs.Pause)
}

func (h *Handler) ResumeSubscription(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Subs.Resume)
}

func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Subs.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string, now time.Time) (subscription.Subscription, error)) {
	sub, err := op(r.Context(), chi.URLParam(r, "id"), h.Now())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case subscription.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, subscription.ErrDuplicatePayment):
		writeError(w, http.StatusConflict, "payment already applied", err)
	case errors.Is(err, subscription.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered", err)
	case errors.Is(err, subscription.ErrVersionConflict):
		writeError(w, http.StatusConflict, "subscription busy, retry", err)
	case accrual.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid operation", err)
	case errors.Is(err, accrual.ErrZeroTarget):
		// A plan escaped validation; log loudly, keep details off the wire.
		log.Printf("[API] BUG: zero-target plan reached the engine: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
