// internal/analysis/parse.go
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"rideviz/internal/models"
)

var (
	ErrNoJSONFound        = errors.New("NO_JSON_FOUND")
	ErrModelOutputInvalid = errors.New("MODEL_OUTPUT_INVALID")
)

// resultSchema is the strict shape the model's JSON answer must satisfy.
// The model is untrusted; anything it returns is validated here before it
// becomes a typed AnalysisResult.
const resultSchema = `{
	"type": "object",
	"required": ["visualizationType"],
	"properties": {
		"visualizationType": {
			"type": "string",
			"enum": ["map", "chart", "both", "none"]
		},
		"mapData": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"required": ["lat", "lng"],
				"properties": {
					"name": {"type": "string"},
					"address": {"type": "string"},
					"lat": {"type": "number"},
					"lng": {"type": "number"},
					"visits": {"type": "number", "minimum": 0},
					"category": {"type": "string"}
				}
			}
		},
		"chartData": {
			"type": ["object", "null"],
			"required": ["type", "title", "data"],
			"properties": {
				"type": {"type": "string", "enum": ["bar", "pie", "line"]},
				"title": {"type": "string"},
				"subtitle": {"type": "string"},
				"xAxisLabel": {"type": "string"},
				"yAxisLabel": {"type": "string"},
				"data": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["name", "value"],
						"properties": {
							"name": {"type": "string"},
							"value": {"type": "number"}
						}
					}
				}
			}
		},
		"reasoning": {"type": "string"}
	}
}`

// ExtractJSON returns the first balanced {...} substring of text, aware of
// JSON string literals and escapes.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSONFound
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONFound
}

// ParseResult extracts, validates, and decodes the model's final text into
// a normalized AnalysisResult.
func ParseResult(text string) (*models.AnalysisResult, error) {
	payload, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	schemaLoader := gojsonschema.NewStringLoader(resultSchema)
	documentLoader := gojsonschema.NewStringLoader(payload)

	validation, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutputInvalid, err)
	}
	if !validation.Valid() {
		reasons := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrModelOutputInvalid, strings.Join(reasons, "; "))
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutputInvalid, err)
	}

	normalize(&result)
	return &result, nil
}

// normalize enforces the AnalysisResult invariants on the partially-trusted
// decode. The prompt instructs the model to follow these rules, but nothing
// stops it from ignoring them, so they are re-checked locally:
//   - a chart with fewer than 2 points is rejected (single-point comparisons
//     carry no information)
//   - a declared "chart" answer drops any stray map points, a declared "map"
//     answer drops any stray chart
//   - the type collapses to "none" when no data survives
func normalize(r *models.AnalysisResult) {
	if r.MapData == nil {
		r.MapData = []models.LocationPoint{}
	}

	if r.ChartData != nil && len(r.ChartData.Data) < 2 {
		r.ChartData = nil
	}

	switch r.VisualizationType {
	case models.VisualizationMap:
		r.ChartData = nil
	case models.VisualizationChart:
		r.MapData = []models.LocationPoint{}
	case models.VisualizationBoth, models.VisualizationNone:
	default:
		r.VisualizationType = models.VisualizationNone
	}

	hasMap := len(r.MapData) > 0
	hasChart := r.ChartData != nil
	switch {
	case hasMap && hasChart:
		r.VisualizationType = models.VisualizationBoth
	case hasMap:
		r.VisualizationType = models.VisualizationMap
	case hasChart:
		r.VisualizationType = models.VisualizationChart
	default:
		r.VisualizationType = models.VisualizationNone
		r.ChartData = nil
	}
}
