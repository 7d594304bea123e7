package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// BlankLabel groups records whose text field is empty.
const BlankLabel = "(blank)"

// Key extracts a grouping label from a record. Of returns false when the
// record has no value for the key; such records are left out of the group.
// Text keys never return false: empty values are labelled BlankLabel.
type Key struct {
	Name string
	Of   func(models.Record) (string, bool)
}

// Value extracts the number being aggregated.
type Value func(models.Record) (decimal.Decimal, bool)

func textKey(name string, field func(models.Record) string) Key {
	return Key{
		Name: name,
		Of: func(r models.Record) (string, bool) {
			if v := field(r); v != "" {
				return v, true
			}
			return BlankLabel, true
		},
	}
}

var (
	ByStatus   = textKey(string(models.ColPaymentStatus), func(r models.Record) string { return r.Status })
	BySource   = textKey(string(models.ColSource), func(r models.Record) string { return r.Source })
	ByCurrency = textKey(string(models.ColCurrencyCode), func(r models.Record) string { return r.Currency })
	ByProduct  = textKey(string(models.ColProductCode), func(r models.Record) string { return r.Product })
	ByCustomer = textKey(string(models.ColCustomerID), func(r models.Record) string { return r.CustomerID })

	// ByDay labels are ISO dates so ascending label order is date order.
	ByDay = Key{
		Name: string(models.ColSalesDate),
		Of: func(r models.Record) (string, bool) {
			if !r.HasDate() {
				return "", false
			}
			return r.Date.Format(time.DateOnly), true
		},
	}

	// ByWeekday numbers days Monday=0 through Sunday=6.
	ByWeekday = Key{
		Name: "Weekday",
		Of: func(r models.Record) (string, bool) {
			if !r.HasDate() {
				return "", false
			}
			return fmt.Sprintf("%d", (int(r.Date.Weekday())+6)%7), true
		},
	}

	// ByDayOfMonth is zero padded so labels sort numerically.
	ByDayOfMonth = Key{
		Name: "Day",
		Of: func(r models.Record) (string, bool) {
			if !r.HasDate() {
				return "", false
			}
			return fmt.Sprintf("%02d", r.Date.Day()), true
		},
	}
)

// Amount is the GST-inclusive product amount.
func Amount(r models.Record) (decimal.Decimal, bool) {
	return r.Amount.Decimal, r.Amount.Valid
}

// WeekdayName turns a ByWeekday label back into a day name.
func WeekdayName(label string) string {
	names := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	var i int
	if _, err := fmt.Sscanf(label, "%d", &i); err != nil || i < 0 || i >= len(names) {
		return label
	}
	return names[i]
}
