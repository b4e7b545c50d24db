// internal/viz/router_test.go
package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideviz/internal/models"
)

// ==========================
// Test Fixtures
// ==========================

func points(n int) []models.LocationPoint {
	out := make([]models.LocationPoint, n)
	for i := range out {
		out[i] = models.LocationPoint{
			Name:   "Location",
			Lat:    30.0 + float64(i),
			Lng:    -97.0 - float64(i),
			Visits: 10 * (i + 1),
		}
	}
	return out
}

func mapResult(n int) *models.AnalysisResult {
	return &models.AnalysisResult{
		VisualizationType: models.VisualizationMap,
		MapData:           points(n),
	}
}

func chartResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		VisualizationType: models.VisualizationChart,
		MapData:           []models.LocationPoint{},
		ChartData: &models.ChartSpec{
			Type:  models.ChartBar,
			Title: "Trips by Hour",
			Data: []models.ChartPoint{
				{Name: "8am", Value: 12},
				{Name: "9am", Value: 31},
			},
		},
		Reasoning: "hourly comparison",
	}
}

func noneResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		VisualizationType: models.VisualizationNone,
		MapData:           []models.LocationPoint{},
	}
}

// ==========================
// Apply Tests
// ==========================

func TestApply_MapResultOpensMapAndSelectsFirst(t *testing.T) {
	state := Apply(NewViewState(), mapResult(3), DashboardPolicy)

	assert.True(t, state.MapOpen)
	assert.Len(t, state.MapPoints, 3)
	assert.Equal(t, 0, state.SelectedIndex)
	assert.Nil(t, state.Chart)
	assert.False(t, state.ChartOpen)
}

func TestApply_MapResultReplacesPriorPoints(t *testing.T) {
	state := Apply(NewViewState(), mapResult(5), DashboardPolicy)
	state = Select(state, 3)

	state = Apply(state, mapResult(2), DashboardPolicy)

	assert.Len(t, state.MapPoints, 2)
	// Selection resets to the first point of the new collection, never a
	// stale index into the old one.
	assert.Equal(t, 0, state.SelectedIndex)
}

func TestApply_ChartResultOpensChart(t *testing.T) {
	state := Apply(NewViewState(), chartResult(), DashboardPolicy)

	assert.True(t, state.ChartOpen)
	require.NotNil(t, state.Chart)
	assert.Equal(t, models.ChartBar, state.Chart.Type)
	assert.Equal(t, "Trips by Hour", state.Chart.Title)
	assert.Len(t, state.Chart.Data, 2)
	assert.Equal(t, "hourly comparison", state.Chart.Reasoning)
}

func TestApply_ChartResultDefaultsReasoning(t *testing.T) {
	result := chartResult()
	result.Reasoning = ""

	state := Apply(NewViewState(), result, DashboardPolicy)

	require.NotNil(t, state.Chart)
	assert.Equal(t, "Generated from bot response analysis", state.Chart.Reasoning)
}

func TestApply_ChartOnlyClearsMapPoints(t *testing.T) {
	state := Apply(NewViewState(), mapResult(3), DashboardPolicy)
	require.True(t, state.MapOpen)

	state = Apply(state, chartResult(), DashboardPolicy)

	assert.Empty(t, state.MapPoints)
	assert.Equal(t, NoSelection, state.SelectedIndex)
}

func TestApply_ChartOnlyMapPanelPolicyDivergence(t *testing.T) {
	tests := []struct {
		name        string
		policy      Policy
		wantMapOpen bool
	}{
		{
			name:        "dashboard keeps the map panel open",
			policy:      DashboardPolicy,
			wantMapOpen: true,
		},
		{
			name:        "widget closes the map panel",
			policy:      WidgetPolicy,
			wantMapOpen: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := Apply(NewViewState(), mapResult(2), tt.policy)
			require.True(t, state.MapOpen)

			state = Apply(state, chartResult(), tt.policy)

			assert.Equal(t, tt.wantMapOpen, state.MapOpen)
			// Regardless of policy the points themselves are gone.
			assert.Empty(t, state.MapPoints)
		})
	}
}

func TestApply_NoneResultLeavesStateUntouched(t *testing.T) {
	state := Apply(NewViewState(), mapResult(2), DashboardPolicy)
	state = Apply(state, chartResult(), DashboardPolicy)
	before := state

	state = Apply(state, noneResult(), DashboardPolicy)

	assert.Equal(t, before, state)
}

func TestApply_BothResultOpensBothPanels(t *testing.T) {
	result := chartResult()
	result.VisualizationType = models.VisualizationBoth
	result.MapData = points(2)

	state := Apply(NewViewState(), result, WidgetPolicy)

	assert.True(t, state.MapOpen)
	assert.True(t, state.ChartOpen)
	assert.Len(t, state.MapPoints, 2)
	assert.Equal(t, 0, state.SelectedIndex)
	require.NotNil(t, state.Chart)
}

func TestApply_DoesNotAliasResultSlices(t *testing.T) {
	result := mapResult(2)
	state := Apply(NewViewState(), result, DashboardPolicy)

	result.MapData[0].Name = "mutated"

	assert.NotEqual(t, "mutated", state.MapPoints[0].Name)
}

// ==========================
// Selection Tests
// ==========================

func TestSelect(t *testing.T) {
	base := Apply(NewViewState(), mapResult(3), DashboardPolicy)

	tests := []struct {
		name     string
		index    int
		expected int
	}{
		{name: "valid index", index: 2, expected: 2},
		{name: "first index", index: 0, expected: 0},
		{name: "negative index is a no-op", index: -1, expected: 0},
		{name: "past-the-end index is a no-op", index: 3, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := Select(base, tt.index)
			assert.Equal(t, tt.expected, state.SelectedIndex)
		})
	}
}

func TestSelect_Idempotent(t *testing.T) {
	state := Apply(NewViewState(), mapResult(3), DashboardPolicy)

	once := Select(state, 1)
	twice := Select(once, 1)

	assert.Equal(t, once, twice)
}

// ==========================
// Panel Toggle Tests
// ==========================

func TestSetMapOpen(t *testing.T) {
	state := Apply(NewViewState(), mapResult(2), DashboardPolicy)

	state = SetMapOpen(state, false)
	assert.False(t, state.MapOpen)
	// Content survives the close.
	assert.Len(t, state.MapPoints, 2)

	state = SetMapOpen(state, true)
	assert.True(t, state.MapOpen)
}

func TestSetMapOpen_WithoutPointsStaysClosed(t *testing.T) {
	state := SetMapOpen(NewViewState(), true)
	assert.False(t, state.MapOpen)
}

func TestSetMapOpen_ReopeningRestoresSelection(t *testing.T) {
	state := Apply(NewViewState(), mapResult(2), DashboardPolicy)
	state.SelectedIndex = NoSelection

	state = SetMapOpen(state, true)

	assert.Equal(t, 0, state.SelectedIndex)
}

func TestSetChartOpen(t *testing.T) {
	state := Apply(NewViewState(), chartResult(), DashboardPolicy)

	state = SetChartOpen(state, false)
	assert.False(t, state.ChartOpen)
	assert.NotNil(t, state.Chart)

	state = SetChartOpen(state, true)
	assert.True(t, state.ChartOpen)
}

func TestSetChartOpen_WithoutChartStaysClosed(t *testing.T) {
	state := SetChartOpen(NewViewState(), true)
	assert.False(t, state.ChartOpen)
}
