package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func sseRequest(signals string) *http.Request {
	target := "/sse/dashboard"
	if signals != "" {
		target += "?datastar=" + url.QueryEscape(signals)
	}
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()

	h := NewSSEHandlers(analytics, logger)

	require.NotNil(t, h)
	assert.Same(t, analytics, h.analytics)
	assert.Same(t, logger, h.logger)
}

func TestSSEHandlers_HandleDashboard(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())
	w := httptest.NewRecorder()

	h.HandleDashboard(w, sseRequest(""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `id="kpi-tiles"`)
	assert.Contains(t, body, "₹170")
	assert.Contains(t, body, `id="top-customers"`)
	assert.Contains(t, body, "Paid orders: 2 out of 3 total transactions.")
	assert.Contains(t, body, "salesTrend")
	assert.Contains(t, body, "heatmap")
}

func TestSSEHandlers_HandleDashboardWithSignals(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())
	w := httptest.NewRecorder()

	h.HandleDashboard(w, sseRequest(`{"start":"2024-01-02","end":"2024-01-02","statuses":["paid"],"sources":[],"currencies":[]}`))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "₹20")
	assert.Contains(t, body, "Paid orders: 1 out of 1 total transactions.")
}

func TestSSEHandlers_HandleDashboardInvalidSignals(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name    string
		signals string
		code    string
	}{
		{"malformed json", `{"start":`, "BAD_REQUEST"},
		{"bad date", `{"start":"yesterday"}`, "VALIDATION_ERROR"},
		{"reversed range", `{"start":"2024-02-01","end":"2024-01-01"}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleDashboard(w, sseRequest(tt.signals))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
			assert.False(t, strings.Contains(w.Header().Get("Content-Type"), "text/event-stream"))
		})
	}
}

func TestSSEHandlers_MissingColumnNotice(t *testing.T) {
	a := services.NewAnalytics(services.WithLogger(testLogger()))
	ds := models.NewDataset([]models.Record{testRecord(1, "paid", "web", "P1", "C1", 100)})
	delete(ds.Present, models.ColCustomerID)
	a.SetDataset(ds)
	h := NewSSEHandlers(a, testLogger())
	w := httptest.NewRecorder()

	h.HandleDashboard(w, sseRequest(""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Customer ID column not found in dataset.")
}

func TestSSEHandlers_EmptySelection(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())
	w := httptest.NewRecorder()

	h.HandleDashboard(w, sseRequest(`{"statuses":["nothing"]}`))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "₹0")
	assert.Contains(t, body, "No sales in the current selection.")
}
