// internal/viz/router.go
package viz

import "rideviz/internal/models"

// defaultReasoning backs the chart panel when the model gave none.
const defaultReasoning = "Generated from bot response analysis"

// Apply folds a fresh AnalysisResult into the prior view state. It is a pure
// state-transition function; it never fails, because the orchestrator only
// ever hands it a well-formed result.
//
// Transition rules, in order:
//  1. map/both with points: replace the point collection, select the first
//     point, open the map panel
//  2. chart only: clear points and selection; close the map panel only when
//     the policy says so
//  3. chart/both with a chart spec: rebuild the chart payload and open the
//     chart panel
//  4. otherwise nothing changes - the previous visualization stays
//     available behind its toggle
func Apply(prior ViewState, result *models.AnalysisResult, policy Policy) ViewState {
	next := prior

	if result.HasMap() {
		next.MapPoints = append([]models.LocationPoint(nil), result.MapData...)
		next.SelectedIndex = 0
		next.MapOpen = true
	} else if result.VisualizationType == models.VisualizationChart {
		next.MapPoints = []models.LocationPoint{}
		next.SelectedIndex = NoSelection
		if policy.AutoCloseMapOnChartOnly {
			next.MapOpen = false
		}
	}

	if result.HasChart() {
		reasoning := result.Reasoning
		if reasoning == "" {
			reasoning = defaultReasoning
		}
		next.Chart = &ChartView{
			Type:       result.ChartData.Type,
			Title:      result.ChartData.Title,
			Subtitle:   result.ChartData.Subtitle,
			XAxisLabel: result.ChartData.XAxisLabel,
			YAxisLabel: result.ChartData.YAxisLabel,
			Data:       append([]models.ChartPoint(nil), result.ChartData.Data...),
			Reasoning:  reasoning,
		}
		next.ChartOpen = true
	}

	return next
}

// Select re-targets the active map selection. Out-of-range indexes leave the
// state untouched; selecting the same index twice is the same as once.
func Select(state ViewState, index int) ViewState {
	if index < 0 || index >= len(state.MapPoints) {
		return state
	}
	state.SelectedIndex = index
	return state
}

// SetMapOpen toggles the map panel. Opening with points but no selection
// resets the selection to the first point.
func SetMapOpen(state ViewState, open bool) ViewState {
	state.MapOpen = open && len(state.MapPoints) > 0
	if state.MapOpen && state.SelectedIndex == NoSelection {
		state.SelectedIndex = 0
	}
	return state
}

// SetChartOpen toggles the chart panel; content survives a close.
func SetChartOpen(state ViewState, open bool) ViewState {
	state.ChartOpen = open && state.Chart != nil
	return state
}
