package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sales-dashboard/internal/errors"
)

func TestFilterSignals_Criteria(t *testing.T) {
	c, err := FilterSignals{
		Start:    "2024-01-01",
		End:      "2024-01-31",
		Statuses: []string{" paid ", "", "Initiated"},
	}.Criteria()
	require.NoError(t, err)

	require.NotNil(t, c.Start)
	require.NotNil(t, c.End)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *c.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *c.End)
	assert.Equal(t, []string{"paid", "Initiated"}, c.Statuses)
	assert.Nil(t, c.Sources)
	assert.False(t, c.IsZero())
}

func TestFilterSignals_Empty(t *testing.T) {
	c, err := FilterSignals{}.Criteria()
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestFilterSignals_ValidationMessage(t *testing.T) {
	_, err := FilterSignals{Start: "2024-13-01"}.Criteria()

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, "start must be a date in YYYY-MM-DD form", appErr.Message)
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query   string
		def     int
		want    int
		wantErr bool
	}{
		{"", 10, 10, false},
		{"", 500, 100, false},
		{"limit=3", 10, 3, false},
		{"limit=100", 10, 100, false},
		{"limit=101", 10, 0, true},
		{"limit=-1", 10, 0, true},
		{"limit=abc", 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/top-products?"+tt.query, nil)
			got, err := parseLimit(r, tt.def)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryList(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/summary?source=web,app&source=store", nil)
	assert.Equal(t, []string{"web", "app", "store"}, queryList(r, "source"))
}
