package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard recomputes every widget for the sidebar signals and
// patches the page in one response.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var signals FilterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "invalid filter signals"))
		return
	}

	criteria, err := signals.Criteria()
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	d := h.analytics.Dashboard(r.Context(), criteria)
	f := h.analytics.Formatter()

	sse := datastar.NewSSE(w, r)

	fragments := []templ.Component{
		templates.NoticesPanel(d.Notices),
		templates.KPITiles(d.Summary, f),
		templates.TopCustomersTable(d.TopCustomers, f),
		templates.InsightsPanel(d.Insights),
	}
	for _, c := range fragments {
		html, err := templates.Render(r.Context(), c)
		if err != nil {
			h.logger.Error("render fragment", "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.Warn("patch elements", "error", err)
			return
		}
	}

	chartSignals, err := json.Marshal(map[string]any{
		"salesTrend":         d.SalesTrend,
		"salesBySource":      d.SalesBySource,
		"statusDistribution": d.StatusDistribution,
		"topProducts":        d.TopProducts,
		"heatmap":            d.Heatmap,
	})
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	if err := sse.PatchSignals(chartSignals); err != nil {
		h.logger.Warn("patch signals", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
