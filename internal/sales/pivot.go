package sales

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Agg reduces the values that fall into one pivot cell.
type Agg int

const (
	Sum Agg = iota
	Count
	Mean
)

func (a Agg) String() string {
	switch a {
	case Count:
		return "count"
	case Mean:
		return "mean"
	default:
		return "sum"
	}
}

// Pivot is a sparse cross-tabulation. Rows and Cols are sorted ascending;
// combinations without any value have no cell.
type Pivot struct {
	RowKey string
	ColKey string
	Agg    Agg
	Rows   []string
	Cols   []string
	cells  map[string]map[string]decimal.Decimal
}

// Cell returns the aggregate for row r and column c.
func (p Pivot) Cell(r, c string) (decimal.Decimal, bool) {
	v, ok := p.cells[r][c]
	return v, ok
}

// Dense lays the pivot out row-major with nil for empty cells.
func (p Pivot) Dense() [][]*float64 {
	out := make([][]*float64, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = make([]*float64, len(p.Cols))
		for j, c := range p.Cols {
			if v, ok := p.Cell(r, c); ok {
				f := v.InexactFloat64()
				out[i][j] = &f
			}
		}
	}
	return out
}

type cell struct {
	sum decimal.Decimal
	n   int64
}

// PivotTable cross-tabulates value by rowKey and colKey. Records missing
// either key or the value are skipped, matching a dataframe pivot_table.
func PivotTable(v View, rowKey, colKey Key, value Value, agg Agg) Pivot {
	acc := make(map[string]map[string]*cell)
	var rows, cols []string
	seenCol := make(map[string]bool)

	for rec := range v.All() {
		r, ok := rowKey.Of(rec)
		if !ok {
			continue
		}
		c, ok := colKey.Of(rec)
		if !ok {
			continue
		}
		val, ok := value(rec)
		if !ok {
			continue
		}

		row, exists := acc[r]
		if !exists {
			row = make(map[string]*cell)
			acc[r] = row
			rows = append(rows, r)
		}
		if !seenCol[c] {
			seenCol[c] = true
			cols = append(cols, c)
		}
		if row[c] == nil {
			row[c] = &cell{sum: decimal.Zero}
		}
		row[c].sum = row[c].sum.Add(val)
		row[c].n++
	}

	slices.Sort(rows)
	slices.Sort(cols)

	cells := make(map[string]map[string]decimal.Decimal, len(acc))
	for r, row := range acc {
		cells[r] = make(map[string]decimal.Decimal, len(row))
		for c, x := range row {
			switch agg {
			case Count:
				cells[r][c] = decimal.NewFromInt(x.n)
			case Mean:
				cells[r][c] = x.sum.Div(decimal.NewFromInt(x.n))
			default:
				cells[r][c] = x.sum
			}
		}
	}

	return Pivot{
		RowKey: rowKey.Name,
		ColKey: colKey.Name,
		Agg:    agg,
		Rows:   rows,
		Cols:   cols,
		cells:  cells,
	}
}
