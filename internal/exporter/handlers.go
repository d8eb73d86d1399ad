package exporter

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/fxnlabs/fpga/internal/metrics"
	"github.com/fxnlabs/fpga/internal/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ResourcesHandler serves the cached inventory. The format query parameter
// selects json (the default), yaml, cbor or text.
func ResourcesHandler(inv *Inventory, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		format := r.URL.Query().Get("format")
		if format == "" {
			format = render.JSON
		}
		if !render.Valid(format) {
			http.Error(w, "unknown format", http.StatusBadRequest)
			return
		}

		snapshots, updated := inv.Snapshots()
		if updated.IsZero() {
			msg := "inventory not available yet"
			if err := inv.Err(); err != nil {
				msg = err.Error()
			}
			http.Error(w, msg, http.StatusServiceUnavailable)
			return
		}

		var buf bytes.Buffer
		if err := render.Snapshots(&buf, format, snapshots); err != nil {
			log.Error("Failed to render inventory", zap.String("format", format), zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", render.ContentType(format))
		w.Header().Set("Last-Modified", updated.UTC().Format(http.TimeFormat))
		w.Header().Set("Cache-Control", "max-age="+strconv.Itoa(int(inv.interval.Seconds())))
		_, _ = w.Write(buf.Bytes())
	})
}

// NewHandler routes /metrics and /resources.
func NewHandler(inv *Inventory, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Middleware(promhttp.Handler(), "/metrics"))
	mux.Handle("/resources", metrics.Middleware(ResourcesHandler(inv, log), "/resources"))
	return mux
}
