package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column is one of the headers the dashboard understands.
type Column string

const (
	ColSalesDate     Column = "Sales Date"
	ColPaymentStatus Column = "Payment Status"
	ColSource        Column = "Source"
	ColCurrencyCode  Column = "Currency Code"
	ColAmount        Column = "Product Amount with GST"
	ColProductCode   Column = "Product Code"
	ColCustomerID    Column = "Customer ID"
)

// Columns lists every expected column in export order.
var Columns = []Column{
	ColSalesDate,
	ColPaymentStatus,
	ColSource,
	ColCurrencyCode,
	ColAmount,
	ColProductCode,
	ColCustomerID,
}

// NormalizeHeader lowercases a header and collapses runs of whitespace so
// "Currency  Code" and "currency code" match the same column.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// MatchColumn reports which expected column a raw header names.
func MatchColumn(header string) (Column, bool) {
	n := NormalizeHeader(header)
	for _, c := range Columns {
		if NormalizeHeader(string(c)) == n {
			return c, true
		}
	}
	return "", false
}

// Payment status values as they appear in the export. Matching is literal.
const (
	StatusPaid      = "paid"
	StatusInitiated = "Initiated"
	StatusRefund    = "refund"
)

type Record struct {
	Date       time.Time           `json:"sales_date"`
	Status     string              `json:"payment_status"`
	Source     string              `json:"source"`
	Currency   string              `json:"currency_code"`
	Product    string              `json:"product_code"`
	CustomerID string              `json:"customer_id"`
	Amount     decimal.NullDecimal `json:"amount"`
}

// HasDate reports whether the sales date parsed. A zero Date is the
// missing marker.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

type Dataset struct {
	Records  []Record
	Present  map[Column]bool
	Path     string
	LoadedAt time.Time
}

// NewDataset builds a dataset in which every expected column is present.
func NewDataset(records []Record) *Dataset {
	present := make(map[Column]bool, len(Columns))
	for _, c := range Columns {
		present[c] = true
	}
	return &Dataset{
		Records:  records,
		Present:  present,
		LoadedAt: time.Now(),
	}
}

func (d *Dataset) Has(c Column) bool {
	return d != nil && d.Present[c]
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// MissingColumns returns the expected columns absent from the source file.
func (d *Dataset) MissingColumns() []Column {
	var missing []Column
	for _, c := range Columns {
		if !d.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// FilterCriteria selects records. Nil bounds and empty sets accept everything.
type FilterCriteria struct {
	Start      *time.Time
	End        *time.Time
	Statuses   []string
	Sources    []string
	Currencies []string
}

// IsZero reports whether the criteria accept every record.
func (c FilterCriteria) IsZero() bool {
	return c.Start == nil && c.End == nil &&
		len(c.Statuses) == 0 && len(c.Sources) == 0 && len(c.Currencies) == 0
}
