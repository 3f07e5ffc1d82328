package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pgdash/canvaschart/internal/document"
	"github.com/pgdash/canvaschart/internal/store"
	"github.com/pgdash/canvaschart/internal/typeid"
)

const maxUploadSize = 8 << 20 // 8MB

type Handler struct {
	renderer *Renderer
}

func NewHandler(renderer *Renderer) *Handler {
	return &Handler{renderer: renderer}
}

// Render handles POST /api/render?format=svg|png with a chart document
// body.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := document.ParseWith(r.Body, h.renderer.Defaults)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.write(w, r, doc, format)
}

// Sample handles GET /api/samples/{kind}?format=svg|png.
func (h *Handler) Sample(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		doc, err := document.NewSample(kind, time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.write(w, r, doc, format)
	}
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, doc *document.Document, format Format) {
	exportID := typeid.NewExportID()
	start := time.Now()

	// Render fully before writing so failures still get a proper status.
	var buf bytes.Buffer
	if err := h.renderer.Render(r.Context(), doc, format, &buf); err != nil {
		switch {
		case errors.Is(err, document.ErrInvalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, store.ErrUnknownSeries):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			slog.Error("render export", "export", exportID, "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
		}
		return
	}

	slog.Info("export finished", "export", exportID, "format", format, "bytes", buf.Len(), "duration", time.Since(start))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.%s"`, filename(doc.Title), format))
	w.Header().Set("X-Export-Id", exportID)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func filename(title string) string {
	if title == "" {
		return "chart"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, title)
}
