package loader

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	batchSize  = 5000
	maxWorkers = 8

	// Serial day numbers accepted as dates: 1970-01-01 through 9999-12-31.
	minSerial = 25569
	maxSerial = 2958465
)

var (
	serialPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	amountPattern = regexp.MustCompile(`^-?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)
)

var dateLayouts = []string{
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"02-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseRecords converts data rows in parallel batches. Output order follows
// input order; blank rows are dropped.
func parseRecords(ctx context.Context, rows [][]string, cols map[models.Column]int) ([]models.Record, error) {
	parsed := make([]models.Record, len(rows))
	blank := make([]bool, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if isBlank(rows[i]) {
					blank[i] = true
					continue
				}
				parsed[i] = parseRecord(rows[i], cols)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	for i, r := range parsed {
		if !blank[i] {
			records = append(records, r)
		}
	}
	return records, nil
}

func parseRecord(row []string, cols map[models.Column]int) models.Record {
	cell := func(c models.Column) string {
		i, ok := cols[c]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	r := models.Record{
		Status:     cell(models.ColPaymentStatus),
		Source:     cell(models.ColSource),
		Currency:   cell(models.ColCurrencyCode),
		Product:    cell(models.ColProductCode),
		CustomerID: cell(models.ColCustomerID),
	}
	if d, ok := ParseDate(cell(models.ColSalesDate)); ok {
		r.Date = d
	}
	if amt, ok := ParseAmount(cell(models.ColAmount)); ok {
		r.Amount = decimal.NewNullDecimal(amt)
	}
	return r
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseDate tries the known layouts and Excel serial day numbers. ok is
// false for anything else.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if !serialPattern.MatchString(s) {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < minSerial || serial > maxSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseAmount reads a money value. A currency symbol before or after the
// number and comma thousands separators are allowed; anything else makes the
// amount missing.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.Is(unicode.Sc, r) || unicode.IsSpace(r)
	})
	s = sign + s
	if !amountPattern.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
