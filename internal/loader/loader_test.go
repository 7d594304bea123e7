package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

const salesCSV = `Sales Date,Payment Status,Source,Currency  Code,Product Amount with GST,Product Code,Customer ID
2022-06-01,paid,Website,INR,"1,180.00",P100,C1
2022-06-02,Initiated,App,INR,590,P200,C2
not a date,refund,Website,USD,236,P100,C1
,,,,,,
2022-07-15 10:30:00,paid,App,INR,₹ 99.50,P300,C3
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeTemp(t, "sales.csv", salesCSV)

	ds, err := Load(context.Background(), path, FormatAuto)
	require.NoError(t, err)

	require.Equal(t, 4, ds.Len(), "blank rows are dropped")
	assert.Equal(t, path, ds.Path)
	assert.Empty(t, ds.MissingColumns())

	first := ds.Records[0]
	assert.Equal(t, time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "paid", first.Status)
	assert.Equal(t, "Website", first.Source)
	assert.Equal(t, "INR", first.Currency, "double-spaced header still matches")
	assert.Equal(t, "P100", first.Product)
	assert.Equal(t, "C1", first.CustomerID)
	require.True(t, first.Amount.Valid)
	assert.Equal(t, "1180", first.Amount.Decimal.String())

	assert.False(t, ds.Records[2].HasDate(), "unparseable date becomes the missing marker")
	assert.Equal(t, "refund", ds.Records[2].Status, "row is still kept")

	last := ds.Records[3]
	assert.Equal(t, 15, last.Date.Day())
	assert.Equal(t, "99.5", last.Amount.Decimal.String())
}

func TestLoad_MissingOptionalColumn(t *testing.T) {
	path := writeTemp(t, "sales.csv", "Sales Date,Payment Status,Source,Product Amount with GST\n2022-06-01,paid,Website,10\n")

	ds, err := Load(context.Background(), path, FormatCSV)
	require.NoError(t, err)

	assert.True(t, ds.Has(models.ColSource))
	assert.False(t, ds.Has(models.ColCustomerID))
	assert.ElementsMatch(t,
		[]models.Column{models.ColCurrencyCode, models.ColProductCode, models.ColCustomerID},
		ds.MissingColumns())
	assert.Equal(t, "", ds.Records[0].CustomerID)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		format  Format
		want    error
	}{
		{"empty file", "empty.csv", "", FormatAuto, ErrEmptyFile},
		{"no header", "other.csv", "a,b,c\n1,2,3\n", FormatAuto, ErrNoHeader},
		{"unknown extension", "sales.json", "{}", FormatAuto, ErrUnsupportedFormat},
		{"unknown format", "sales.csv", salesCSV, Format("parquet"), ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)

			_, err := Load(context.Background(), path, tt.format)

			require.Error(t, err)
			assert.True(t, IsLoadError(err))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), FormatAuto)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "read", le.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_CanceledContext(t *testing.T) {
	path := writeTemp(t, "sales.csv", salesCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, path, FormatAuto)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	// Put the data on a second sheet below a title row.
	_, err := f.NewSheet("Sales data")
	require.NoError(t, err)
	rows := [][]any{
		{"June & July export"},
		{"Sales Date", "Payment Status", "Source", "Currency Code", "Product Amount with GST", "Product Code", "Customer ID"},
		{"2022-06-01", "paid", "Website", "INR", 1180, "P100", "C1"},
		{"2022-06-02", "Initiated", "App", "INR", 590.5, "P200", "C2"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sales data", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := Load(context.Background(), path, FormatAuto)
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "C2", ds.Records[1].CustomerID)
	assert.Equal(t, "590.5", ds.Records[1].Amount.Decimal.String())
	assert.True(t, ds.Records[0].HasDate())

	named, err := Load(context.Background(), path, FormatXLSX, WithSheet("Sales data"))
	require.NoError(t, err)
	assert.Equal(t, 2, named.Len())

	_, err = Load(context.Background(), path, FormatXLSX, WithSheet("missing"))
	assert.True(t, IsLoadError(err))
}

func TestParse_LargeInputKeepsOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("Customer ID,Product Amount with GST\n")
	const n = batchSize*2 + 17
	for i := range n {
		b.WriteString("C")
		b.WriteString(strings.Repeat("x", i%3))
		b.WriteString(",1\n")
	}
	rows, err := ReadCSV(strings.NewReader(b.String()))
	require.NoError(t, err)

	ds, err := Parse(context.Background(), rows)
	require.NoError(t, err)

	require.Equal(t, n, ds.Len())
	for i, r := range ds.Records {
		if want := "C" + strings.Repeat("x", i%3); r.CustomerID != want {
			t.Fatalf("record %d = %q, want %q", i, r.CustomerID, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2022-06-01", time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"2022-06-01 13:45:00", time.Date(2022, 6, 1, 13, 45, 0, 0, time.UTC), true},
		{"06/30/2022", time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC), true},
		{"7/4/2022", time.Date(2022, 7, 4, 0, 0, 0, 0, time.UTC), true},
		{"01-Jul-2022", time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"44743", time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"soon", time.Time{}, false},
		{"2022", time.Time{}, false},
		{"20220601", time.Time{}, false},
		{"-44743", time.Time{}, false},
		{"4.4743e4", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"100", "100", true},
		{"1,234.50", "1234.5", true},
		{"₹ 99", "99", true},
		{"-20", "-20", true},
		{"$1,000", "1000", true},
		{"99.90 €", "99.9", true},
		{"-₹ 5", "-5", true},
		{"", "0", false},
		{"n/a", "0", false},
		{"-", "0", false},
		{"1e3", "0", false},
		{"12abc34", "0", false},
		{"v2.0", "0", false},
		{"1.234,50", "0", false},
		{"12,34", "0", false},
		{"(20)", "0", false},
		{"1.2.3", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
