// Package sales filters a loaded dataset and aggregates the result. Every
// function is pure: inputs are never modified and nothing is cached.
package sales

import (
	"iter"
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

// View is an ordered, non-owning subset of a dataset.
type View struct {
	rows []*models.Record
}

// ViewOf returns a view over every record of ds.
func ViewOf(ds *models.Dataset) View {
	return Apply(ds, models.FilterCriteria{})
}

// Apply keeps a record when its date (if present) lies within the inclusive
// day range and its status, source and currency are each accepted. Records
// without a date are not subject to the date predicate.
func Apply(ds *models.Dataset, c models.FilterCriteria) View {
	if ds == nil {
		return View{}
	}

	var start, end time.Time
	if c.Start != nil {
		start = startOfDay(*c.Start)
	}
	if c.End != nil {
		end = startOfDay(*c.End).AddDate(0, 0, 1)
	}

	rows := make([]*models.Record, 0, len(ds.Records))
	for i := range ds.Records {
		r := &ds.Records[i]
		if r.HasDate() {
			if c.Start != nil && r.Date.Before(start) {
				continue
			}
			if c.End != nil && !r.Date.Before(end) {
				continue
			}
		}
		if !accepts(c.Statuses, r.Status) || !accepts(c.Sources, r.Source) || !accepts(c.Currencies, r.Currency) {
			continue
		}
		rows = append(rows, r)
	}
	return View{rows: rows}
}

func accepts(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (v View) Len() int {
	return len(v.rows)
}

func (v View) Empty() bool {
	return len(v.rows) == 0
}

// All yields copies of the records in dataset order.
func (v View) All() iter.Seq[models.Record] {
	return func(yield func(models.Record) bool) {
		for _, r := range v.rows {
			if !yield(*r) {
				return
			}
		}
	}
}

// Head returns copies of the first n records.
func (v View) Head(n int) []models.Record {
	n = min(max(n, 0), len(v.rows))
	out := make([]models.Record, n)
	for i := range n {
		out[i] = *v.rows[i]
	}
	return out
}
