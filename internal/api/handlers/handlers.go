package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/api/middleware"
	"github.com/finpulse/finpulse/internal/assistant"
	"github.com/finpulse/finpulse/internal/domain"
	"github.com/finpulse/finpulse/internal/stats"
	"github.com/finpulse/finpulse/internal/store"
	"github.com/finpulse/finpulse/internal/syncer"
)

// Handler serves the sync, analytics and assistant endpoints.
type Handler struct {
	coordinator *syncer.Coordinator
	docs        store.DocumentStore
	assistant   *assistant.Service
	log         zerolog.Logger
}

// New creates the API handler.
func New(coordinator *syncer.Coordinator, docs store.DocumentStore, asst *assistant.Service, log zerolog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		docs:        docs,
		assistant:   asst,
		log:         log,
	}
}

// Routes mounts all endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/users/{userID}/sync", h.Sync)
	r.Post("/api/users/{userID}/transactions/range", h.FetchRange)
	r.Get("/api/users/{userID}/transactions", h.ListTransactions)
	r.Get("/api/users/{userID}/transactions/{txID}/stats", h.TransactionStats)
	r.Post("/api/users/{userID}/assistant", h.Assistant)
}

// Sync handles POST /api/users/{userID}/sync
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result, err := h.coordinator.Sync(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err, "Sync failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// FetchRange handles POST /api/users/{userID}/transactions/range
func (h *Handler) FetchRange(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "end must be YYYY-MM-DD")
		return
	}

	result, err := h.coordinator.FetchRange(r.Context(), userID, start, end)
	if err != nil {
		h.writeDomainError(w, err, "Range fetch failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// ListTransactions handles GET /api/users/{userID}/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	txs, err := h.docs.ListTransactions(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// TransactionStats handles GET /api/users/{userID}/transactions/{txID}/stats
func (h *Handler) TransactionStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	txID := chi.URLParam(r, "txID")

	txs, err := h.docs.ListTransactions(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to load transactions")
		return
	}

	var ref *domain.Transaction
	for i := range txs {
		if txs[i].ID == txID {
			ref = &txs[i]
			break
		}
	}

	result := stats.Compute(ref, txs, time.Now())
	if result == nil {
		middleware.WriteError(w, http.StatusNotFound, "not_found", "Transaction not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// Assistant handles POST /api/users/{userID}/assistant
func (h *Handler) Assistant(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req struct {
		Messages []assistant.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "messages must not be empty")
		return
	}

	txs, err := h.docs.ListTransactions(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to load transactions")
		return
	}

	reply, err := h.assistant.Reply(r.Context(), req.Messages, txs)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Assistant reply failed")
		middleware.WriteError(w, http.StatusBadGateway, "completion_failed", "Assistant is unavailable")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// writeDomainError maps the error taxonomy onto HTTP statuses and stable
// codes. Provider codes/messages are surfaced for retry decisions; access
// tokens never are.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, logMsg string) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrAuthenticationMissing):
		middleware.WriteError(w, http.StatusUnauthorized, "auth_missing", "No linked account; connect a bank first")
	case errors.As(err, &ve):
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", ve.Error())
	default:
		if pe, ok := domain.IsProviderError(err); ok {
			h.log.Error().Err(err).Msg(logMsg)
			middleware.WriteError(w, http.StatusBadGateway, "provider_error", pe.Error())
			return
		}
		h.log.Error().Err(err).Msg(logMsg)
		middleware.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
