package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/starfederation/datastar-go/datastar"

	"autosales-dashboard/internal/errors"
	"autosales-dashboard/internal/models"
	"autosales-dashboard/internal/services"
	"autosales-dashboard/internal/ui/layout"
	"autosales-dashboard/internal/ui/templates"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReportSignals is the client state sent with every dropdown change. A nil
// Report means the signal was not sent at all.
type ReportSignals struct {
	Report *string `json:"report"`
}

type chartSignals struct {
	Chart1 models.ChartSpec `json:"chart1"`
	Chart2 models.ChartSpec `json:"chart2"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	layout    layout.Layout
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, l layout.Layout, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		layout:    l,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderOutput(ctx context.Context, message string) (string, error) {
	var sb strings.Builder
	err := templates.OutputArea(h.layout.Output.ID, message).Render(ctx, &sb)
	return sb.String(), err
}

// HandleReport recomputes the selected report and patches the output text
// and both chart specs. Unreadable signals and unknown selections replace the
// output text with an error and leave the charts untouched.
func (h *SSEHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	signals := ReportSignals{}
	readErr := datastar.ReadSignals(r, &signals)

	sse := datastar.NewSSE(w, r)

	if readErr != nil {
		h.logger.Warn("read report signals", "error", readErr)
		h.reject(r.Context(), sse, "invalid report signal")
		return
	}

	selection := string(h.layout.DefaultSelection())
	if signals.Report != nil {
		selection = *signals.Report
	}

	view, err := computeView(h.analytics, selection)
	if err != nil {
		message := "Unable to display report"
		if appErr, ok := err.(*errors.AppError); ok {
			message = appErr.Message
		}
		h.logger.Warn("report update rejected", "report", selection, "error", err)
		h.reject(r.Context(), sse, message)
		return
	}

	html, err := h.renderOutput(r.Context(), view.Message)
	if err != nil {
		h.logger.Error("render output area", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Error("patch output area", "error", err)
		return
	}

	payload, err := json.Marshal(chartSignals{Chart1: view.Chart1, Chart2: view.Chart2})
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	if err := sse.PatchSignals(payload); err != nil {
		h.logger.Error("patch chart signals", "error", err)
	}
}

// reject patches message into the output region only.
func (h *SSEHandlers) reject(ctx context.Context, sse *datastar.ServerSentEventGenerator, message string) {
	html, err := h.renderOutput(ctx, message)
	if err != nil {
		h.logger.Error("render output area", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Error("patch output area", "error", err)
	}
}

// InitialSignals renders the page's starting signal state as JSON.
func InitialSignals(l layout.Layout) (string, error) {
	data, err := json.Marshal(l.InitialSignals())
	if err != nil {
		return "", fmt.Errorf("marshal initial signals: %w", err)
	}
	return string(data), nil
}
