package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

const cacheControl = "private, max-age=60"

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

func (h *APIHandlers) writeData(w http.ResponseWriter, r *http.Request, data any) {
	errors.WriteSuccessWithHeaders(w, r, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// writeWidget maps a missing column to 404 COLUMN_MISSING.
func (h *APIHandlers) writeWidget(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		var mc *services.MissingColumnError
		if stderrors.As(err, &mc) {
			err = errors.ColumnMissing(string(mc.Column))
		}
		errors.WriteError(w, r, h.logger, err)
		return
	}
	h.writeData(w, r, data)
}

// criteria parses the filter query or writes a 400 and reports false.
func (h *APIHandlers) criteria(w http.ResponseWriter, r *http.Request) (models.FilterCriteria, bool) {
	c, err := parseCriteria(r)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return c, false
	}
	return c, true
}

func (h *APIHandlers) limit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	n, err := parseLimit(r, def)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return 0, false
	}
	return n, true
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, r, h.analytics.Options(r.Context()))
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	h.writeData(w, r, h.analytics.Summary(r.Context(), c))
}

func (h *APIHandlers) HandleSalesTrend(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	data, err := h.analytics.SalesTrend(r.Context(), c)
	h.writeWidget(w, r, data, err)
}

func (h *APIHandlers) HandleSalesBySource(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	data, err := h.analytics.SalesBySource(r.Context(), c)
	h.writeWidget(w, r, data, err)
}

func (h *APIHandlers) HandleStatusDistribution(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	data, err := h.analytics.StatusDistribution(r.Context(), c)
	h.writeWidget(w, r, data, err)
}

func (h *APIHandlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	data, err := h.analytics.Heatmap(r.Context(), c)
	h.writeWidget(w, r, data, err)
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	n, ok := h.limit(w, r, h.analytics.Limits().TopProducts)
	if !ok {
		return
	}
	data, err := h.analytics.TopProducts(r.Context(), c, n)
	h.writeWidget(w, r, data, err)
}

func (h *APIHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	n, ok := h.limit(w, r, h.analytics.Limits().TopCustomers)
	if !ok {
		return
	}
	data, err := h.analytics.TopCustomers(r.Context(), c, n)
	h.writeWidget(w, r, data, err)
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	h.writeData(w, r, h.analytics.Insights(r.Context(), c))
}

func (h *APIHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	n, ok := h.limit(w, r, h.analytics.Limits().PreviewRows)
	if !ok {
		return
	}
	h.writeData(w, r, h.analytics.Preview(r.Context(), c, n))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"records":   h.analytics.Dataset().Len(),
	}

	errors.WriteSuccess(w, r, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.analytics.Stats())
}

// HandleReload rereads the sales file. The previous dataset keeps serving
// if the reload fails.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	err := h.analytics.Reload(r.Context())
	switch {
	case stderrors.Is(err, services.ErrNoSource):
		errors.WriteError(w, r, h.logger, errors.ServiceUnavailable("no sales file has been loaded"))
		return
	case err != nil:
		errors.WriteError(w, r, h.logger, errors.DataUnavailable(err))
		return
	}
	errors.WriteSuccess(w, r, h.analytics.Stats())
}
