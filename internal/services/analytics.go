package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/loader"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/money"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
)

var ErrNoSource = errors.New("no sales file has been loaded")

// MissingColumnError is returned for widgets whose input column is absent
// from the loaded file.
type MissingColumnError struct {
	Column models.Column
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s column not found in dataset", e.Column)
}

// Source remembers where the dataset came from so it can be reloaded.
type Source struct {
	Path   string
	Format loader.Format
	Sheet  string
}

// Analytics owns the loaded dataset and computes dashboard widgets from it.
// The dataset itself is never modified; reloads swap the pointer.
type Analytics struct {
	mu      sync.RWMutex
	dataset *models.Dataset
	source  *Source

	loads   atomic.Int64
	logger  *slog.Logger
	metrics *observability.Metrics
	limits  config.DashboardConfig
	format  money.Formatter
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		a.logger = logger
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analytics) {
		a.metrics = m
	}
}

func WithLimits(limits config.DashboardConfig) Option {
	return func(a *Analytics) {
		a.limits = limits
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		dataset: models.NewDataset(nil),
		logger:  slog.Default(),
		limits: config.DashboardConfig{
			CurrencySymbol: "₹",
			TopProducts:    10,
			TopCustomers:   5,
			PreviewRows:    20,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.format = money.NewFormatter(a.limits.CurrencySymbol)
	return a
}

func (a *Analytics) Limits() config.DashboardConfig {
	return a.limits
}

func (a *Analytics) Formatter() money.Formatter {
	return a.format
}

// SetData replaces the dataset with records that carry every column.
func (a *Analytics) SetData(records []models.Record) {
	a.swap(models.NewDataset(records))
}

// SetDataset replaces the dataset as-is.
func (a *Analytics) SetDataset(ds *models.Dataset) {
	a.swap(ds)
}

func (a *Analytics) swap(ds *models.Dataset) {
	a.mu.Lock()
	a.dataset = ds
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.DatasetRecords.Set(float64(ds.Len()))
	}
}

// LoadFile reads the sales file and makes it the current dataset. On
// failure the previous dataset stays in place.
func (a *Analytics) LoadFile(ctx context.Context, src Source) (err error) {
	ctx, span := observability.StartSpan(ctx, "analytics.load",
		attribute.String("path", src.Path),
		attribute.String("format", string(src.Format)),
	)
	defer func() { observability.FinishSpan(span, err) }()

	start := time.Now()
	a.logger.Info("loading sales file", "path", src.Path, "format", src.Format)

	ds, err := loader.Load(ctx, src.Path, src.Format, loader.WithSheet(src.Sheet))
	duration := time.Since(start)
	if a.metrics != nil {
		a.metrics.LoadDuration.Observe(duration.Seconds())
	}
	if err != nil {
		if a.metrics != nil {
			a.metrics.LoadFailures.Inc()
		}
		return err
	}

	a.swap(ds)
	a.mu.Lock()
	a.source = &src
	a.mu.Unlock()
	a.loads.Add(1)

	if missing := ds.MissingColumns(); len(missing) > 0 {
		a.logger.Warn("sales file is missing columns; dependent widgets will be skipped",
			"path", src.Path,
			"missing", missing,
		)
	}
	a.logger.Info("sales file loaded",
		"path", src.Path,
		"records", ds.Len(),
		"duration", duration,
	)
	span.SetAttributes(attribute.Int("records", ds.Len()))
	return nil
}

// Reload reads the last loaded file again.
func (a *Analytics) Reload(ctx context.Context) error {
	a.mu.RLock()
	src := a.source
	a.mu.RUnlock()

	if src == nil {
		return ErrNoSource
	}
	return a.LoadFile(ctx, *src)
}

// Dataset returns the current dataset. Callers must treat it as read-only.
func (a *Analytics) Dataset() *models.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

func (a *Analytics) filtered(ctx context.Context, c models.FilterCriteria, widget string) (*models.Dataset, sales.View) {
	_, span := observability.StartSpan(ctx, "analytics.filter", attribute.String("widget", widget))
	defer span.End()

	ds := a.Dataset()
	v := sales.Apply(ds, c)
	span.SetAttributes(attribute.Int("rows", v.Len()))

	if a.metrics != nil {
		a.metrics.Recomputations.WithLabelValues(widget).Inc()
	}
	return ds, v
}

func requireColumns(ds *models.Dataset, cols ...models.Column) error {
	for _, c := range cols {
		if !ds.Has(c) {
			return &MissingColumnError{Column: c}
		}
	}
	return nil
}

// Options lists the sidebar choices from the whole dataset.
func (a *Analytics) Options(ctx context.Context) models.FilterOptions {
	_, v := a.filtered(ctx, models.FilterCriteria{}, "options")

	opts := models.FilterOptions{
		Statuses:   sales.Distinct(v, sales.ByStatus),
		Sources:    sales.Distinct(v, sales.BySource),
		Currencies: sales.Distinct(v, sales.ByCurrency),
	}
	slices.Sort(opts.Statuses)
	slices.Sort(opts.Sources)
	slices.Sort(opts.Currencies)
	if first, last, ok := sales.DateBounds(v); ok {
		opts.MinDate = first.Format(time.DateOnly)
		opts.MaxDate = last.Format(time.DateOnly)
	}
	return opts
}

func (a *Analytics) Summary(ctx context.Context, c models.FilterCriteria) models.Summary {
	ds, v := a.filtered(ctx, c, "summary")
	return summarize(ds, v)
}

func summarize(ds *models.Dataset, v sales.View) models.Summary {
	paid := sales.CountByStatus(v, models.StatusPaid)
	initiated := sales.CountByStatus(v, models.StatusInitiated)

	s := models.Summary{
		TotalSales:      sales.TotalAmount(v).InexactFloat64(),
		TotalOrders:     v.Len(),
		PaidOrders:      paid,
		InitiatedOrders: initiated,
		RefundOrders:    sales.CountByStatus(v, models.StatusRefund),
		ConversionRate:  sales.ConversionRate(paid, initiated),
		AmountMissing:   !ds.Has(models.ColAmount),
	}
	if avg, ok := sales.AverageAmount(v); ok {
		s.AverageOrderValue = avg.InexactFloat64()
	}
	return s
}

func series(groups []sales.Group, label func(string) string) []models.SeriesPoint {
	out := make([]models.SeriesPoint, 0, len(groups))
	for _, g := range groups {
		l := g.Key
		if label != nil {
			l = label(g.Key)
		}
		out = append(out, models.SeriesPoint{Label: l, Value: g.Total.InexactFloat64()})
	}
	return out
}

func (a *Analytics) SalesTrend(ctx context.Context, c models.FilterCriteria) ([]models.SeriesPoint, error) {
	ds, v := a.filtered(ctx, c, "sales_trend")
	return salesTrend(ds, v)
}

func salesTrend(ds *models.Dataset, v sales.View) ([]models.SeriesPoint, error) {
	if err := requireColumns(ds, models.ColSalesDate, models.ColAmount); err != nil {
		return nil, err
	}
	return series(sales.GroupSum(v, sales.ByDay), nil), nil
}

func (a *Analytics) SalesBySource(ctx context.Context, c models.FilterCriteria) ([]models.SeriesPoint, error) {
	ds, v := a.filtered(ctx, c, "sales_by_source")
	return salesBySource(ds, v)
}

func salesBySource(ds *models.Dataset, v sales.View) ([]models.SeriesPoint, error) {
	if err := requireColumns(ds, models.ColSource, models.ColAmount); err != nil {
		return nil, err
	}
	return series(sales.GroupSum(v, sales.BySource), nil), nil
}

func (a *Analytics) StatusDistribution(ctx context.Context, c models.FilterCriteria) ([]models.CountPoint, error) {
	ds, v := a.filtered(ctx, c, "status_distribution")
	return statusDistribution(ds, v)
}

func statusDistribution(ds *models.Dataset, v sales.View) ([]models.CountPoint, error) {
	if err := requireColumns(ds, models.ColPaymentStatus); err != nil {
		return nil, err
	}
	counts := sales.CountBy(v, sales.ByStatus)
	if counts == nil {
		counts = []models.CountPoint{}
	}
	return counts, nil
}

// Heatmap sums amounts by weekday (rows, Monday first) and day of month.
func (a *Analytics) Heatmap(ctx context.Context, c models.FilterCriteria) (*models.Heatmap, error) {
	ds, v := a.filtered(ctx, c, "heatmap")
	return heatmap(ds, v)
}

func heatmap(ds *models.Dataset, v sales.View) (*models.Heatmap, error) {
	if err := requireColumns(ds, models.ColSalesDate, models.ColAmount); err != nil {
		return nil, err
	}
	p := sales.PivotTable(v, sales.ByWeekday, sales.ByDayOfMonth, sales.Amount, sales.Sum)

	rows := make([]string, len(p.Rows))
	for i, r := range p.Rows {
		rows[i] = sales.WeekdayName(r)
	}
	return &models.Heatmap{
		RowKey: p.RowKey,
		ColKey: p.ColKey,
		Rows:   rows,
		Cols:   append([]string{}, p.Cols...),
		Cells:  p.Dense(),
	}, nil
}

func (a *Analytics) TopProducts(ctx context.Context, c models.FilterCriteria, n int) ([]models.SeriesPoint, error) {
	ds, v := a.filtered(ctx, c, "top_products")
	return topBy(ds, v, models.ColProductCode, sales.ByProduct, n)
}

func (a *Analytics) TopCustomers(ctx context.Context, c models.FilterCriteria, n int) ([]models.SeriesPoint, error) {
	ds, v := a.filtered(ctx, c, "top_customers")
	return topBy(ds, v, models.ColCustomerID, sales.ByCustomer, n)
}

func topBy(ds *models.Dataset, v sales.View, col models.Column, key sales.Key, n int) ([]models.SeriesPoint, error) {
	if err := requireColumns(ds, col, models.ColAmount); err != nil {
		return nil, err
	}
	return series(sales.TopN(v, key, n), nil), nil
}

// Preview returns the first n filtered records.
func (a *Analytics) Preview(ctx context.Context, c models.FilterCriteria, n int) []models.Record {
	_, v := a.filtered(ctx, c, "preview")
	return v.Head(n)
}

func (a *Analytics) Insights(ctx context.Context, c models.FilterCriteria) models.Insights {
	ds, v := a.filtered(ctx, c, "insights")
	return a.insights(ds, v, summarize(ds, v))
}

func (a *Analytics) insights(ds *models.Dataset, v sales.View, s models.Summary) models.Insights {
	in := models.Insights{
		PaidOrders:        s.PaidOrders,
		TotalTransactions: s.TotalOrders,
		ConversionRate:    s.ConversionRate,
		RefundOrders:      s.RefundOrders,
		TopSource:         "N/A",
		TopProduct:        "N/A",
		AverageOrderValue: s.AverageOrderValue,
	}
	if top, err := topBy(ds, v, models.ColSource, sales.BySource, 1); err == nil && len(top) > 0 {
		in.TopSource = top[0].Label
	}
	if top, err := topBy(ds, v, models.ColProductCode, sales.ByProduct, 1); err == nil && len(top) > 0 {
		in.TopProduct = top[0].Label
	}

	f := a.format
	in.Lines = []string{
		fmt.Sprintf("Paid orders: %s out of %s total transactions.", f.Count(in.PaidOrders), f.Count(in.TotalTransactions)),
		fmt.Sprintf("Conversion rate: %s. Improving the checkout flow could raise this.", f.Percent(in.ConversionRate)),
		fmt.Sprintf("Refund orders: %s. Reduce them by improving product quality or the payment experience.", f.Count(in.RefundOrders)),
		fmt.Sprintf("Highest sales source: %s. Invest more in this channel.", in.TopSource),
		fmt.Sprintf("Top product: %s. Promote it with bundles or discounts.", in.TopProduct),
		fmt.Sprintf("Average order value: %s.", f.Amount(in.AverageOrderValue)),
	}
	if s.AmountMissing {
		in.Lines[len(in.Lines)-1] = "Average order value: N/A."
	}
	return in
}

// Dashboard computes every widget from a single filtered view. Widgets
// whose columns are missing are left nil and explained in Notices.
func (a *Analytics) Dashboard(ctx context.Context, c models.FilterCriteria) models.Dashboard {
	ds, v := a.filtered(ctx, c, "dashboard")

	d := models.Dashboard{Summary: summarize(ds, v)}
	seen := make(map[string]bool)
	note := func(err error) {
		var mc *MissingColumnError
		if errors.As(err, &mc) {
			msg := string(mc.Column) + " column not found in dataset."
			if !seen[msg] {
				seen[msg] = true
				d.Notices = append(d.Notices, msg)
			}
		}
	}

	if d.Summary.AmountMissing {
		note(&MissingColumnError{Column: models.ColAmount})
	}

	var err error
	if d.SalesTrend, err = salesTrend(ds, v); err != nil {
		note(err)
	}
	if d.SalesBySource, err = salesBySource(ds, v); err != nil {
		note(err)
	}
	if d.StatusDistribution, err = statusDistribution(ds, v); err != nil {
		note(err)
	}
	if d.Heatmap, err = heatmap(ds, v); err != nil {
		note(err)
	}
	if d.TopProducts, err = topBy(ds, v, models.ColProductCode, sales.ByProduct, a.limits.TopProducts); err != nil {
		note(err)
	}
	if d.TopCustomers, err = topBy(ds, v, models.ColCustomerID, sales.ByCustomer, a.limits.TopCustomers); err != nil {
		note(err)
	}
	d.Insights = a.insights(ds, v, d.Summary)

	return d
}

func (a *Analytics) Stats() map[string]any {
	ds := a.Dataset()

	a.mu.RLock()
	path := ""
	if a.source != nil {
		path = a.source.Path
	}
	a.mu.RUnlock()

	missing := make([]string, 0)
	for _, c := range ds.MissingColumns() {
		missing = append(missing, string(c))
	}

	return map[string]any{
		"record_count":    ds.Len(),
		"source":          path,
		"loaded_at":       ds.LoadedAt,
		"loads":           a.loads.Load(),
		"missing_columns": missing,
	}
}
