package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"autosales-dashboard/internal/charts"
	"autosales-dashboard/internal/errors"
	"autosales-dashboard/internal/observability"
	"autosales-dashboard/internal/services"
)

type ChartHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewChartHandlers(analytics *services.Analytics, logger *slog.Logger) *ChartHandlers {
	return &ChartHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleSVG renders chart 1 or 2 of a report as SVG, for example
// /charts/yearly/2.svg.
func (h *ChartHandlers) HandleSVG(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	params := httprouter.ParamsFromContext(r.Context())

	index, err := strconv.Atoi(strings.TrimSuffix(params.ByName("index"), ".svg"))
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("chart index must be 1 or 2"), requestID)
		return
	}

	view, err := computeView(h.analytics, params.ByName("report"))
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	spec, ok := view.Chart(index)
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("chart index must be 1 or 2"), requestID)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderSVG(&buf, spec, charts.Options{}); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to render chart"), requestID)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("write chart", "error", err, "request_id", requestID)
	}
}
