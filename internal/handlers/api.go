package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"autosales-dashboard/internal/errors"
	"autosales-dashboard/internal/models"
	"autosales-dashboard/internal/observability"
	"autosales-dashboard/internal/services"
)

// Version is reported by the health endpoint and the version command.
var Version = "1.0.0"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleViews serves the report for the :report path parameter as JSON.
func (h *APIHandlers) HandleViews(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	raw := httprouter.ParamsFromContext(r.Context()).ByName("report")

	view, err := computeView(h.analytics, raw)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	headers := map[string]string{
		"Cache-Control": "no-store",
	}

	errors.WriteSuccessWithHeaders(w, view, headers)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.Loaded() {
		status = "loading"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}

// computeView parses a raw selection and runs the report, mapping failures
// to application errors.
func computeView(analytics *services.Analytics, raw string) (models.ReportView, error) {
	sel, err := models.ParseReportSelection(raw)
	if err != nil {
		return models.ReportView{}, errors.UnknownReport(err, raw).
			WithDetails("valid reports are recession and yearly")
	}

	view, err := analytics.Views(sel)
	switch {
	case err == nil:
		return view, nil
	case stderrors.Is(err, services.ErrNotLoaded):
		return models.ReportView{}, errors.ServiceUnavailableWrap(err, "dataset is not loaded yet")
	default:
		return models.ReportView{}, errors.InternalWrap(err, "failed to compute report")
	}
}
