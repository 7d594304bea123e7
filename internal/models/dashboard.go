package models

// Summary carries the KPI tiles.
type Summary struct {
	TotalSales        float64 `json:"total_sales"`
	TotalOrders       int     `json:"total_orders"`
	PaidOrders        int     `json:"paid_orders"`
	InitiatedOrders   int     `json:"initiated_orders"`
	RefundOrders      int     `json:"refund_orders"`
	ConversionRate    float64 `json:"conversion_rate"`
	AverageOrderValue float64 `json:"average_order_value"`
	// AmountMissing is set when the source has no amount column; the amount
	// figures are then meaningless zeros.
	AmountMissing bool `json:"amount_missing,omitempty"`
}

type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type CountPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Heatmap is a dense rendering of a pivot. Missing cells are null.
type Heatmap struct {
	RowKey string       `json:"row_key"`
	ColKey string       `json:"col_key"`
	Rows   []string     `json:"rows"`
	Cols   []string     `json:"cols"`
	Cells  [][]*float64 `json:"cells"`
}

type Insights struct {
	PaidOrders        int      `json:"paid_orders"`
	TotalTransactions int      `json:"total_transactions"`
	ConversionRate    float64  `json:"conversion_rate"`
	RefundOrders      int      `json:"refund_orders"`
	TopSource         string   `json:"top_source"`
	TopProduct        string   `json:"top_product"`
	AverageOrderValue float64  `json:"average_order_value"`
	Lines             []string `json:"lines"`
}

// FilterOptions feeds the sidebar: distinct values and the date bounds.
type FilterOptions struct {
	Statuses   []string `json:"statuses"`
	Sources    []string `json:"sources"`
	Currencies []string `json:"currencies"`
	MinDate    string   `json:"min_date,omitempty"`
	MaxDate    string   `json:"max_date,omitempty"`
}

// Dashboard is every widget for one set of criteria. Nil widgets were
// skipped; Notices says why.
type Dashboard struct {
	Summary            Summary       `json:"summary"`
	SalesTrend         []SeriesPoint `json:"sales_trend"`
	SalesBySource      []SeriesPoint `json:"sales_by_source"`
	StatusDistribution []CountPoint  `json:"status_distribution"`
	Heatmap            *Heatmap      `json:"heatmap"`
	TopProducts        []SeriesPoint `json:"top_products"`
	TopCustomers       []SeriesPoint `json:"top_customers"`
	Insights           Insights      `json:"insights"`
	Notices            []string      `json:"notices,omitempty"`
}
