// internal/models/analysis.go
package models

import "fmt"

// VisualizationType says which UI surfaces a bot answer maps onto.
type VisualizationType string

const (
	VisualizationMap   VisualizationType = "map"
	VisualizationChart VisualizationType = "chart"
	VisualizationBoth  VisualizationType = "both"
	VisualizationNone  VisualizationType = "none"
)

// ChartType is the renderable chart family requested by the model.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartPie  ChartType = "pie"
	ChartLine ChartType = "line"
)

// GeocodeResult is the first candidate returned by the geocoding service
// for a free-text address. Absence (no candidate, bad payload, dead network)
// is represented by a nil pointer, never by an error the pipeline acts on.
type GeocodeResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// LocationPoint is one map marker. Visits drives marker sizing/coloring,
// Category is an open string used only for display tinting.
type LocationPoint struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Visits   int     `json:"visits"`
	Category string  `json:"category"`
}

// ChartPoint is one named value in a chart series.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartSpec describes the chart the model asked for.
type ChartSpec struct {
	Type       ChartType    `json:"type"`
	Title      string       `json:"title"`
	Subtitle   string       `json:"subtitle,omitempty"`
	XAxisLabel string       `json:"xAxisLabel,omitempty"`
	YAxisLabel string       `json:"yAxisLabel,omitempty"`
	Data       []ChartPoint `json:"data"`
}

// AnalysisResult is the structured output of the analysis pipeline.
//
// Invariants (normalized before the result leaves the orchestrator):
//   - MapData non-empty implies VisualizationType in {map, both}
//   - ChartData present implies VisualizationType in {chart, both} and
//     len(ChartData.Data) >= 2
//   - VisualizationType none implies MapData empty and ChartData nil
type AnalysisResult struct {
	VisualizationType VisualizationType `json:"visualizationType"`
	MapData           []LocationPoint   `json:"mapData"`
	ChartData         *ChartSpec        `json:"chartData"`
	Reasoning         string            `json:"reasoning"`
}

// HasMap reports whether the result requests the map surface with content.
func (r *AnalysisResult) HasMap() bool {
	return (r.VisualizationType == VisualizationMap || r.VisualizationType == VisualizationBoth) &&
		len(r.MapData) > 0
}

// HasChart reports whether the result requests the chart surface with content.
func (r *AnalysisResult) HasChart() bool {
	return (r.VisualizationType == VisualizationChart || r.VisualizationType == VisualizationBoth) &&
		r.ChartData != nil
}

// SentinelResult is the designated "nothing to visualize" result every
// failure mode collapses into. The pipeline never raises past it.
func SentinelResult(cause string) *AnalysisResult {
	return &AnalysisResult{
		VisualizationType: VisualizationNone,
		MapData:           []LocationPoint{},
		ChartData:         nil,
		Reasoning:         fmt.Sprintf("Analysis failed: %s", cause),
	}
}
