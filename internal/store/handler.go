package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pgdash/canvaschart/internal/timeseries"
)

const maxAppendSize = 4 << 20

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type appendRequest struct {
	Samples []timeseries.RawSample `json:"samples"`
}

// List handles GET /api/series.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.Series(r.Context())
	if err != nil {
		slog.Error("list series failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": names})
}

// Append handles POST /api/series/{name}/samples.
func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	r.Body = http.MaxBytesReader(w, r.Body, maxAppendSize)
	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Samples) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "samples are required"})
		return
	}

	n, err := h.store.Append(r.Context(), name, req.Samples)
	switch {
	case errors.Is(err, ErrInvalidSample), errors.Is(err, ErrUnknownSeries):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case err != nil:
		slog.Error("append samples failed", "series", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	slog.Info("samples appended", "series", name, "count", n)
	writeJSON(w, http.StatusCreated, map[string]int64{"inserted": n})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
