package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRecord(day int, status, source, product, customer string, amt int64) models.Record {
	return models.Record{
		Date:       time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
		Status:     status,
		Source:     source,
		Currency:   "INR",
		Product:    product,
		CustomerID: customer,
		Amount:     decimal.NewNullDecimal(decimal.NewFromInt(amt)),
	}
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(services.WithLogger(testLogger()))
	a.SetData([]models.Record{
		testRecord(1, "paid", "web", "P1", "C1", 100),
		testRecord(2, "Initiated", "app", "P2", "C2", 50),
		testRecord(2, "paid", "web", "P1", "C3", 20),
	})
	return a
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func serve(t *testing.T, h http.HandlerFunc, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()
	h := NewAPIHandlers(analytics, logger)

	require.NotNil(t, h)
	assert.Same(t, analytics, h.analytics)
	assert.Same(t, logger, h.logger)
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	w, env := serve(t, h.HandleSummary, "/api/summary")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, cacheControl, w.Header().Get("Cache-Control"))
	require.True(t, env.Success)

	var s models.Summary
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.InDelta(t, 170, s.TotalSales, 1e-9)
	assert.Equal(t, 3, s.TotalOrders)
	assert.InDelta(t, 50, s.ConversionRate, 1e-9)
}

func TestAPIHandlers_FiltersFromQuery(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name   string
		query  string
		orders int
	}{
		{"no filter", "", 3},
		{"repeated status", "?status=paid&status=Initiated", 3},
		{"comma separated", "?status=paid,refund", 2},
		{"source", "?source=app", 1},
		{"single day", "?start=2024-01-02&end=2024-01-02", 2},
		{"status is case sensitive", "?status=Paid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serve(t, h.HandleSummary, "/api/summary"+tt.query)
			require.Equal(t, http.StatusOK, w.Code)

			var s models.Summary
			require.NoError(t, json.Unmarshal(env.Data, &s))
			assert.Equal(t, tt.orders, s.TotalOrders)
		})
	}
}

func TestAPIHandlers_ValidationErrors(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
	}{
		{"bad start", h.HandleSummary, "/api/summary?start=01-02-2024"},
		{"end before start", h.HandleSummary, "/api/summary?start=2024-02-01&end=2024-01-01"},
		{"limit not a number", h.HandleTopProducts, "/api/top-products?limit=ten"},
		{"limit too large", h.HandleTopCustomers, "/api/top-customers?limit=1000"},
		{"limit zero", h.HandlePreview, "/api/preview?limit=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serve(t, tt.handler, tt.target)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		})
	}
}

func TestAPIHandlers_Widgets(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	_, env := serve(t, h.HandleSalesTrend, "/api/sales-trend")
	var trend []models.SeriesPoint
	require.NoError(t, json.Unmarshal(env.Data, &trend))
	assert.Equal(t, []models.SeriesPoint{{Label: "2024-01-01", Value: 100}, {Label: "2024-01-02", Value: 70}}, trend)

	_, env = serve(t, h.HandleSalesBySource, "/api/sales-by-source")
	var bySource []models.SeriesPoint
	require.NoError(t, json.Unmarshal(env.Data, &bySource))
	assert.Len(t, bySource, 2)

	_, env = serve(t, h.HandleStatusDistribution, "/api/status-distribution")
	var counts []models.CountPoint
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Len(t, counts, 2)

	_, env = serve(t, h.HandleHeatmap, "/api/heatmap")
	var hm models.Heatmap
	require.NoError(t, json.Unmarshal(env.Data, &hm))
	assert.Equal(t, []string{"Mon", "Tue"}, hm.Rows)

	_, env = serve(t, h.HandleTopProducts, "/api/top-products?limit=1")
	var products []models.SeriesPoint
	require.NoError(t, json.Unmarshal(env.Data, &products))
	assert.Equal(t, []models.SeriesPoint{{Label: "P1", Value: 120}}, products)

	_, env = serve(t, h.HandleTopCustomers, "/api/top-customers")
	var customers []models.SeriesPoint
	require.NoError(t, json.Unmarshal(env.Data, &customers))
	assert.Len(t, customers, 3)

	_, env = serve(t, h.HandleInsights, "/api/insights")
	var in models.Insights
	require.NoError(t, json.Unmarshal(env.Data, &in))
	assert.Equal(t, "web", in.TopSource)

	_, env = serve(t, h.HandlePreview, "/api/preview?limit=2")
	var rows []models.Record
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Len(t, rows, 2)

	_, env = serve(t, h.HandleOptions, "/api/options")
	var opts models.FilterOptions
	require.NoError(t, json.Unmarshal(env.Data, &opts))
	assert.Equal(t, "2024-01-01", opts.MinDate)
}

func TestAPIHandlers_MissingColumn(t *testing.T) {
	a := services.NewAnalytics(services.WithLogger(testLogger()))
	ds := models.NewDataset([]models.Record{testRecord(1, "paid", "web", "P1", "C1", 100)})
	delete(ds.Present, models.ColSource)
	a.SetDataset(ds)
	h := NewAPIHandlers(a, testLogger())

	w, env := serve(t, h.HandleSalesBySource, "/api/sales-by-source")

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "COLUMN_MISSING", env.Error.Code)
	assert.Equal(t, "Source column not found in dataset.", env.Error.Message)

	w, _ = serve(t, h.HandleSummary, "/api/summary")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	w, env := serve(t, h.HandleHealth, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Cache-Control"))

	var health map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 3, health["records"])
	_, err := time.Parse(time.RFC3339, health["timestamp"].(string))
	assert.NoError(t, err)
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	_, env := serve(t, h.HandleStats, "/admin/stats")

	var stats map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 3, stats["record_count"])
}

func TestAPIHandlers_HandleReload(t *testing.T) {
	t.Run("no source loaded", func(t *testing.T) {
		h := NewAPIHandlers(createTestAnalytics(), testLogger())

		req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
		w := httptest.NewRecorder()
		h.HandleReload(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")
	})

	t.Run("file became unreadable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sales.csv")
		require.NoError(t, os.WriteFile(path, []byte("Sales Date,Payment Status,Product Amount with GST\n2024-01-01,paid,10\n"), 0o600))

		a := services.NewAnalytics(services.WithLogger(testLogger()))
		require.NoError(t, a.LoadFile(t.Context(), services.Source{Path: path}))
		require.NoError(t, os.Remove(path))

		h := NewAPIHandlers(a, testLogger())
		w := httptest.NewRecorder()
		h.HandleReload(w, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "DATA_UNAVAILABLE")
		assert.Equal(t, 1, a.Dataset().Len())
	})

	t.Run("rereads the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sales.csv")
		content := "Sales Date,Payment Status,Product Amount with GST\n2024-01-01,paid,10\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		a := services.NewAnalytics(services.WithLogger(testLogger()))
		require.NoError(t, a.LoadFile(t.Context(), services.Source{Path: path}))
		require.NoError(t, os.WriteFile(path, []byte(content+"2024-01-02,paid,5\n"), 0o600))

		h := NewAPIHandlers(a, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
		w := httptest.NewRecorder()
		h.HandleReload(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, a.Dataset().Len())
	})
}
