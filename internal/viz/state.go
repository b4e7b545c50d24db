// internal/viz/state.go
package viz

import "rideviz/internal/models"

// NoSelection marks an empty active map selection.
const NoSelection = -1

// Policy is the per-shell panel-toggle behavior. The analysis and routing
// logic is shared between the dashboard and the embeddable widget; the only
// sanctioned divergence is whether a chart-only answer force-closes an
// already-open map panel.
type Policy struct {
	AutoCloseMapOnChartOnly bool
}

// DashboardPolicy keeps an open map panel open when a chart-only answer
// arrives; WidgetPolicy closes it.
var (
	DashboardPolicy = Policy{AutoCloseMapOnChartOnly: false}
	WidgetPolicy    = Policy{AutoCloseMapOnChartOnly: true}
)

// ChartView is the chart-panel display payload built from a ChartSpec.
type ChartView struct {
	Type       models.ChartType    `json:"type"`
	Title      string              `json:"title"`
	Subtitle   string              `json:"subtitle,omitempty"`
	XAxisLabel string              `json:"xAxisLabel,omitempty"`
	YAxisLabel string              `json:"yAxisLabel,omitempty"`
	Data       []models.ChartPoint `json:"data"`
	Reasoning  string              `json:"reasoning"`
}

// ViewState is everything a UI shell needs to render the two panels.
// Closing a panel hides it but keeps its content, so a toggle control can
// re-open it without re-running analysis.
type ViewState struct {
	MapPoints     []models.LocationPoint `json:"mapPoints"`
	SelectedIndex int                    `json:"selectedIndex"`
	MapOpen       bool                   `json:"mapOpen"`
	Chart         *ChartView             `json:"chart"`
	ChartOpen     bool                   `json:"chartOpen"`
}

// NewViewState is the empty pre-analysis state.
func NewViewState() ViewState {
	return ViewState{
		MapPoints:     []models.LocationPoint{},
		SelectedIndex: NoSelection,
	}
}
