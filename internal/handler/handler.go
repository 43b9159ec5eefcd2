// Package handler exposes the intent dispatcher over HTTP: a small REST
// surface for embedding UIs plus an MCP endpoint for agent tooling.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"storefront-client/internal/dispatch"
	"storefront-client/internal/model"
)

// MaxRequestBodySize caps intent payloads at 1MB.
const MaxRequestBodySize = 1 << 20

// Handler holds the dispatcher and logger behind the HTTP surface.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// New creates a Handler.
func New(d *dispatch.Dispatcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{dispatcher: d, logger: logger}
}

// RegisterRoutes wires all routes onto the mux using method patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("GET /intents", h.handleListIntents)
	mux.HandleFunc("POST /intents/{name}", h.handleIntent)

	mux.Handle("/mcp", h.NewMCPHandler())

	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dispatcher.GetCart(r.Context()))
}

func (h *Handler) handleListIntents(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"intents": dispatch.Names()})
}

func (h *Handler) handleIntent(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		h.writeError(w, model.NewValidationError("body", "unreadable request body"))
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), name, body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if result == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError maps an error chain to a JSON error response. APIError carries
// its own status and code; a bare backend RequestError is surfaced with the
// upstream status and detail; anything else is a 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		var reqErr *model.RequestError
		if errors.As(err, &reqErr) {
			apiErr = &model.APIError{
				Code:       "BACKEND_ERROR",
				Message:    orDefault(reqErr.Detail(), "backend request failed"),
				StatusCode: http.StatusBadGateway,
			}
			if reqErr.Status >= 400 && reqErr.Status < 500 {
				apiErr.StatusCode = reqErr.Status
			}
		} else {
			apiErr = &model.APIError{
				Code:       "INTERNAL_ERROR",
				Message:    "an internal error occurred",
				StatusCode: http.StatusInternalServerError,
			}
			h.logger.Error("internal error", slog.String("error", err.Error()))
		}
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{Code: apiErr.Code, Message: apiErr.Message},
	})
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
