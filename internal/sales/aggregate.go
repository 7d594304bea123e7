package sales

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// Group is one key and its aggregated amount.
type Group struct {
	Key   string
	Total decimal.Decimal
}

// TotalAmount sums the amounts in v. Missing amounts count as nothing.
func TotalAmount(v View) decimal.Decimal {
	total := decimal.Zero
	for r := range v.All() {
		if amt, ok := Amount(r); ok {
			total = total.Add(amt)
		}
	}
	return total
}

// CountByStatus counts records whose status equals status exactly.
func CountByStatus(v View, status string) int {
	n := 0
	for r := range v.All() {
		if r.Status == status {
			n++
		}
	}
	return n
}

// ConversionRate is paid/(paid+initiated) as a percentage, or 0 when there
// are no paid or initiated orders.
func ConversionRate(paid, initiated int) float64 {
	denom := paid + initiated
	if denom <= 0 {
		return 0
	}
	return float64(paid) / float64(denom) * 100
}

// AverageAmount is the mean over records that have an amount. ok is false
// when there are none.
func AverageAmount(v View) (mean decimal.Decimal, ok bool) {
	total := decimal.Zero
	n := 0
	for r := range v.All() {
		if amt, has := Amount(r); has {
			total = total.Add(amt)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero, false
	}
	return total.Div(decimal.NewFromInt(int64(n))), true
}

// groupInOrder sums amounts per key and returns groups in first-seen order.
func groupInOrder(v View, key Key) []Group {
	index := make(map[string]int)
	var groups []Group
	for r := range v.All() {
		k, ok := key.Of(r)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k, Total: decimal.Zero})
		}
		if amt, has := Amount(r); has {
			groups[i].Total = groups[i].Total.Add(amt)
		}
	}
	return groups
}

// GroupSum sums amounts per key, ordered ascending by key label.
func GroupSum(v View, key Key) []Group {
	groups := groupInOrder(v, key)
	slices.SortFunc(groups, func(a, b Group) int {
		return strings.Compare(a.Key, b.Key)
	})
	return groups
}

// TopN returns at most n groups by descending total. Equal totals keep the
// order in which their keys first appeared.
func TopN(v View, key Key, n int) []Group {
	if n <= 0 {
		return []Group{}
	}
	groups := groupInOrder(v, key)
	slices.SortStableFunc(groups, func(a, b Group) int {
		return b.Total.Cmp(a.Total)
	})
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// CountBy counts records per key in first-seen order.
func CountBy(v View, key Key) []models.CountPoint {
	index := make(map[string]int)
	var counts []models.CountPoint
	for r := range v.All() {
		k, ok := key.Of(r)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(counts)
			index[k] = i
			counts = append(counts, models.CountPoint{Label: k})
		}
		counts[i].Count++
	}
	return counts
}

// Distinct lists the key's values in first-seen order. The blank group is
// left out since no filter value selects it.
func Distinct(v View, key Key) []string {
	seen := make(map[string]bool)
	out := []string{}
	for r := range v.All() {
		k, ok := key.Of(r)
		if !ok || k == BlankLabel || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// DateBounds returns the earliest and latest sales dates, or ok=false when
// no record has a date.
func DateBounds(v View) (first, last time.Time, ok bool) {
	for r := range v.All() {
		if !r.HasDate() {
			continue
		}
		if !ok || r.Date.Before(first) {
			first = r.Date
		}
		if !ok || r.Date.After(last) {
			last = r.Date
		}
		ok = true
	}
	return first, last, ok
}
