package templates

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

//go:generate templ generate

// Element ids patched by the SSE endpoint.
const (
	KPIID          = "kpi-tiles"
	InsightsID     = "insights"
	TopCustomersID = "top-customers"
	NoticesID      = "notices"
)

type pageSignals struct {
	Start              string   `json:"start"`
	End                string   `json:"end"`
	Statuses           []string `json:"statuses"`
	Sources            []string `json:"sources"`
	Currencies         []string `json:"currencies"`
	SalesTrend         []any    `json:"salesTrend"`
	SalesBySource      []any    `json:"salesBySource"`
	StatusDistribution []any    `json:"statusDistribution"`
	TopProducts        []any    `json:"topProducts"`
	Heatmap            any      `json:"heatmap"`
}

// initialSignals seeds data-signals with the full date range and empty
// selections.
func initialSignals(opts models.FilterOptions) (string, error) {
	b, err := json.Marshal(pageSignals{
		Start:      opts.MinDate,
		End:        opts.MaxDate,
		Statuses:   []string{},
		Sources:    []string{},
		Currencies: []string{},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const styles = `<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7fb;color:#1f2430}
.layout{display:grid;grid-template-columns:260px 1fr;min-height:100vh}
aside{background:#fff;padding:1.25rem;border-right:1px solid #e3e6ef}
aside label{display:block;font-weight:600;margin:.8rem 0 .3rem}
aside select,aside input{width:100%}
main{padding:1.5rem}
.kpi-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(150px,1fr));gap:.75rem}
.kpi{background:#fff;border-radius:8px;padding:.9rem;box-shadow:0 1px 2px #0001}
.kpi-label{display:block;font-size:.8rem;color:#667}
.kpi-value{font-size:1.4rem;font-weight:700}
.charts{display:grid;grid-template-columns:repeat(auto-fit,minmax(420px,1fr));gap:1rem;margin:1rem 0}
.card{background:#fff;border-radius:8px;padding:1rem}
.modern-table{width:100%;border-collapse:collapse}
.modern-table td,.modern-table th{padding:.4rem;border-bottom:1px solid #eee;text-align:left}
.warning{color:#a15c00}.muted{color:#889}
</style>`

// chartsJS draws the charts from the signals patched by /sse/dashboard.
const chartsJS = `<script>
const charts = {};
function draw(id, type, labels, values, label) {
  const el = document.getElementById(id);
  if (!el) return;
  if (charts[id]) charts[id].destroy();
  charts[id] = new Chart(el, {type, data: {labels, datasets: [{label, data: values}]},
    options: {responsive: true, plugins: {legend: {display: type === 'pie'}}}});
}
function renderCharts(trend, bySource, statuses, topProducts, heatmap) {
  draw('chart-trend', 'line', (trend||[]).map(p => p.label), (trend||[]).map(p => p.value), 'Sales');
  draw('chart-source', 'bar', (bySource||[]).map(p => p.label), (bySource||[]).map(p => p.value), 'Sales');
  draw('chart-status', 'pie', (statuses||[]).map(p => p.label), (statuses||[]).map(p => p.count), 'Orders');
  draw('chart-products', 'bar', (topProducts||[]).map(p => p.label), (topProducts||[]).map(p => p.value), 'Sales');
  const grid = document.getElementById('heatmap');
  if (!grid) return;
  if (!heatmap || !heatmap.rows) { grid.innerHTML = '<p class="muted">No dated sales.</p>'; return; }
  let max = 0;
  heatmap.cells.forEach(r => r.forEach(v => { if (v !== null && v > max) max = v; }));
  let html = '<table class="modern-table"><tr><th></th>' + heatmap.cols.map(c => '<th>' + c + '</th>').join('') + '</tr>';
  heatmap.rows.forEach((row, i) => {
    html += '<tr><th>' + row + '</th>' + heatmap.cells[i].map(v => {
      const a = v === null || max === 0 ? 0 : v / max;
      return '<td title="' + (v ?? '') + '" style="background:rgba(37,99,235,' + a.toFixed(2) + ')"></td>';
    }).join('') + '</tr>';
  });
  grid.innerHTML = html + '</table>';
}
</script>`

// Render renders c to a string for patching.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
