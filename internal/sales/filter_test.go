package sales

import (
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func rec(date time.Time, status, source, currency, product, customer, amt string) models.Record {
	r := models.Record{
		Date:       date,
		Status:     status,
		Source:     source,
		Currency:   currency,
		Product:    product,
		CustomerID: customer,
	}
	if amt != "" {
		r.Amount = amount(amt)
	}
	return r
}

func sampleDataset() *models.Dataset {
	return models.NewDataset([]models.Record{
		rec(day(2022, 6, 1), "paid", "Website", "INR", "P1", "C1", "100"),
		rec(day(2022, 6, 15), "Initiated", "App", "INR", "P2", "C2", "50"),
		rec(day(2022, 7, 1), "refund", "Website", "USD", "P1", "C1", "20"),
		rec(time.Time{}, "paid", "Store", "INR", "P3", "C3", "30"),
		rec(day(2022, 7, 31).Add(15*time.Hour), "paid", "App", "USD", "P2", "C4", "75"),
	})
}

func collect(v View) []models.Record {
	return slices.Collect(v.All())
}

func TestApply_IdentityWithEmptyCriteria(t *testing.T) {
	ds := sampleDataset()

	v := Apply(ds, models.FilterCriteria{})

	assert.Equal(t, ds.Records, collect(v))
}

func TestApply_IdentityWithFullDateRange(t *testing.T) {
	ds := sampleDataset()
	start, end := day(2022, 6, 1), day(2022, 7, 31)

	v := Apply(ds, models.FilterCriteria{Start: &start, End: &end})

	assert.Equal(t, ds.Records, collect(v))
}

func TestApply_DateRangeIsInclusiveByDay(t *testing.T) {
	ds := sampleDataset()
	start, end := day(2022, 7, 1), day(2022, 7, 31)

	v := Apply(ds, models.FilterCriteria{Start: &start, End: &end})
	got := collect(v)

	require.Len(t, got, 3)
	assert.Equal(t, "refund", got[0].Status)
	assert.False(t, got[1].HasDate(), "undated records skip the date predicate")
	assert.Equal(t, "C4", got[2].CustomerID, "records later in the end day are kept")
}

func TestApply_SetMembership(t *testing.T) {
	ds := sampleDataset()

	tests := []struct {
		name     string
		criteria models.FilterCriteria
		want     []string
	}{
		{"status", models.FilterCriteria{Statuses: []string{"paid"}}, []string{"C1", "C3", "C4"}},
		{"source", models.FilterCriteria{Sources: []string{"App"}}, []string{"C2", "C4"}},
		{"currency", models.FilterCriteria{Currencies: []string{"USD"}}, []string{"C1", "C4"}},
		{"combined", models.FilterCriteria{Statuses: []string{"paid"}, Currencies: []string{"INR"}}, []string{"C1", "C3"}},
		{"case sensitive", models.FilterCriteria{Statuses: []string{"Paid"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for r := range Apply(ds, tt.criteria).All() {
				got = append(got, r.CustomerID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_DoesNotMutateDataset(t *testing.T) {
	ds := sampleDataset()
	before := slices.Clone(ds.Records)
	start := day(2022, 7, 1)

	v := Apply(ds, models.FilterCriteria{Start: &start, Statuses: []string{"paid"}})
	for r := range v.All() {
		r.Status = "changed"
	}
	_ = TotalAmount(v)
	_ = GroupSum(v, BySource)

	assert.Equal(t, before, ds.Records)
}

func TestApply_NilDataset(t *testing.T) {
	v := Apply(nil, models.FilterCriteria{})
	assert.True(t, v.Empty())
	assert.Equal(t, 0, v.Len())
}

func TestView_Head(t *testing.T) {
	v := ViewOf(sampleDataset())

	assert.Len(t, v.Head(2), 2)
	assert.Len(t, v.Head(50), 5)
	assert.Empty(t, v.Head(-1))
}
