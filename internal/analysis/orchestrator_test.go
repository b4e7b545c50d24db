// internal/analysis/orchestrator_test.go
package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideviz/internal/common/logger"
	"rideviz/internal/genai"
	"rideviz/internal/models"
	"rideviz/pkg/capability"
)

// ==========================
// Scripted Session Fakes
// ==========================

// scriptedSession replays a fixed sequence of model replies and records what
// the orchestrator sent it.
type scriptedSession struct {
	script       []*genai.Reply
	errs         []error
	turn         int
	sentText     []string
	sentResults  [][]genai.CapabilityResult
	failSendText error
}

func (s *scriptedSession) next() (*genai.Reply, error) {
	if s.turn < len(s.errs) && s.errs[s.turn] != nil {
		err := s.errs[s.turn]
		s.turn++
		return nil, err
	}
	if s.turn >= len(s.script) {
		return nil, errors.New("scripted session exhausted")
	}
	reply := s.script[s.turn]
	s.turn++
	return reply, nil
}

func (s *scriptedSession) SendText(_ context.Context, text string) (*genai.Reply, error) {
	s.sentText = append(s.sentText, text)
	if s.failSendText != nil {
		return nil, s.failSendText
	}
	return s.next()
}

func (s *scriptedSession) SendCapabilityResults(_ context.Context, results []genai.CapabilityResult) (*genai.Reply, error) {
	s.sentResults = append(s.sentResults, results)
	return s.next()
}

type scriptedFactory struct {
	session *scriptedSession
	tools   []genai.FunctionDeclaration
}

func (f *scriptedFactory) NewSession(tools []genai.FunctionDeclaration) genai.Sessioner {
	f.tools = tools
	return f.session
}

// loopingSession keeps requesting the same capability forever.
type loopingSession struct {
	turns int
}

func (s *loopingSession) SendText(_ context.Context, _ string) (*genai.Reply, error) {
	s.turns++
	return &genai.Reply{Calls: []genai.CapabilityCall{{Name: GeocodeCapability, Args: map[string]interface{}{"address": "anywhere"}}}}, nil
}

func (s *loopingSession) SendCapabilityResults(_ context.Context, _ []genai.CapabilityResult) (*genai.Reply, error) {
	s.turns++
	return &genai.Reply{Calls: []genai.CapabilityCall{{Name: GeocodeCapability, Args: map[string]interface{}{"address": "anywhere"}}}}, nil
}

type loopingFactory struct {
	session *loopingSession
}

func (f *loopingFactory) NewSession(_ []genai.FunctionDeclaration) genai.Sessioner {
	return f.session
}

// ==========================
// Test Helpers
// ==========================

// testGeocodeRegistry answers geocodeAddress requests from a fixed table,
// null for anything unknown.
func testGeocodeRegistry(known map[string]*models.GeocodeResult) *capability.Registry {
	reg := capability.NewRegistry()
	reg.Register(capability.Capability{
		Declaration: genai.FunctionDeclaration{
			Name:        GeocodeCapability,
			Description: "Get latitude and longitude coordinates for an address",
		},
		Invoke: func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			address, _ := args["address"].(string)
			if result, ok := known[address]; ok {
				return result, nil
			}
			return nil, nil
		},
	})
	return reg
}

func newTestOrchestrator(t *testing.T, factory genai.SessionFactory, caps *capability.Registry, maxRounds int) *Orchestrator {
	return NewOrchestrator(factory, caps, maxRounds, logger.NewTestLogger(t), nil)
}

func geocodeCall(address string) genai.CapabilityCall {
	return genai.CapabilityCall{
		Name: GeocodeCapability,
		Args: map[string]interface{}{"address": address},
	}
}

// ==========================
// Failure Totality Tests
// ==========================

func TestAnalyze_FailuresDegradeToSentinel(t *testing.T) {
	tests := []struct {
		name    string
		session *scriptedSession
	}{
		{
			name: "model turn fails",
			session: &scriptedSession{
				failSendText: errors.New("MODEL_TURN_FAILED: status 500"),
			},
		},
		{
			name: "final text carries no JSON",
			session: &scriptedSession{
				script: []*genai.Reply{{Text: "I cannot classify this message."}},
			},
		},
		{
			name: "final JSON fails validation",
			session: &scriptedSession{
				script: []*genai.Reply{{Text: `{"visualizationType": "hologram"}`}},
			},
		},
		{
			name: "capability results turn fails",
			session: &scriptedSession{
				script: []*genai.Reply{
					{Calls: []genai.CapabilityCall{geocodeCall("somewhere")}},
				},
				errs: []error{nil, errors.New("MODEL_TURN_FAILED: no candidates")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, &scriptedFactory{session: tt.session}, testGeocodeRegistry(nil), 4)

			result := o.Analyze(context.Background(), "Some bot answer")

			require.NotNil(t, result)
			assert.Equal(t, models.VisualizationNone, result.VisualizationType)
			assert.Empty(t, result.MapData)
			assert.Nil(t, result.ChartData)
			assert.Contains(t, result.Reasoning, "Analysis failed:")
		})
	}
}

func TestAnalyze_CapabilityLoopTerminates(t *testing.T) {
	session := &loopingSession{}
	o := newTestOrchestrator(t, &loopingFactory{session: session}, testGeocodeRegistry(nil), 4)

	result := o.Analyze(context.Background(), "Some bot answer")

	require.NotNil(t, result)
	assert.Equal(t, models.VisualizationNone, result.VisualizationType)
	assert.Contains(t, result.Reasoning, "Analysis failed:")
	// One opening turn plus at most maxRounds capability turns.
	assert.LessOrEqual(t, session.turns, 5)
}

// ==========================
// Round-Trip Classification Tests
// ==========================

func TestAnalyze_SingleLocationBecomesMap(t *testing.T) {
	session := &scriptedSession{
		script: []*genai.Reply{
			{Calls: []genai.CapabilityCall{geocodeCall("403 E 6th St, Austin, TX")}},
			{Text: `{
				"visualizationType": "map",
				"mapData": [{"name": "403 E 6th St", "address": "403 E 6th St, Austin, TX", "lat": 30.2672, "lng": -97.7431, "visits": 64, "category": "entertainment"}],
				"chartData": null,
				"reasoning": "Single location mentioned, showing on map"
			}`},
		},
	}
	caps := testGeocodeRegistry(map[string]*models.GeocodeResult{
		"403 E 6th St, Austin, TX": {Lat: 30.2672, Lng: -97.7431, FormattedAddress: "403 E 6th St, Austin, TX 78701"},
	})

	o := newTestOrchestrator(t, &scriptedFactory{session: session}, caps, 4)
	result := o.Analyze(context.Background(), "The most popular drop-off location was 403 E 6th St, Austin, TX with 64 trips")

	require.NotNil(t, result)
	assert.Equal(t, models.VisualizationMap, result.VisualizationType)
	require.Len(t, result.MapData, 1)
	assert.Equal(t, 64, result.MapData[0].Visits)
	assert.InDelta(t, 30.2672, result.MapData[0].Lat, 0.0001)
	assert.Nil(t, result.ChartData)

	// The capability response made it back to the model.
	require.Len(t, session.sentResults, 1)
	require.Len(t, session.sentResults[0], 1)
	assert.Equal(t, GeocodeCapability, session.sentResults[0][0].Name)
	assert.NotNil(t, session.sentResults[0][0].Response)
}

func TestAnalyze_RankedLocationsBecomeBoth(t *testing.T) {
	session := &scriptedSession{
		script: []*genai.Reply{
			{Calls: []genai.CapabilityCall{
				geocodeCall("Wiggle Room, Austin, TX"),
				geocodeCall("The Aquarium on 6th, Austin, TX"),
				geocodeCall("Green Light Social, Austin, TX"),
			}},
			{Text: `{
				"visualizationType": "both",
				"mapData": [
					{"name": "Wiggle Room", "address": "Wiggle Room, Austin, TX", "lat": 30.2669, "lng": -97.7428, "visits": 234},
					{"name": "The Aquarium on 6th", "address": "The Aquarium on 6th, Austin, TX", "lat": 30.2665, "lng": -97.7389, "visits": 201},
					{"name": "Green Light Social", "address": "Green Light Social, Austin, TX", "lat": 30.2701, "lng": -97.7456, "visits": 187}
				],
				"chartData": {
					"type": "bar",
					"title": "Top Drop-off Locations",
					"data": [
						{"name": "Wiggle Room", "value": 234},
						{"name": "The Aquarium on 6th", "value": 201},
						{"name": "Green Light Social", "value": 187}
					]
				},
				"reasoning": "Ranked comparison across multiple locations"
			}`},
		},
	}
	caps := testGeocodeRegistry(map[string]*models.GeocodeResult{
		"Wiggle Room, Austin, TX":         {Lat: 30.2669, Lng: -97.7428},
		"The Aquarium on 6th, Austin, TX": {Lat: 30.2665, Lng: -97.7389},
		"Green Light Social, Austin, TX":  {Lat: 30.2701, Lng: -97.7456},
	})

	o := newTestOrchestrator(t, &scriptedFactory{session: session}, caps, 4)
	result := o.Analyze(context.Background(), "Top locations: Wiggle Room (234 trips), The Aquarium on 6th (201 trips), Green Light Social (187 trips)")

	require.NotNil(t, result)
	assert.Equal(t, models.VisualizationBoth, result.VisualizationType)
	assert.Len(t, result.MapData, 3)
	require.NotNil(t, result.ChartData)
	assert.Equal(t, models.ChartBar, result.ChartData.Type)
	assert.Len(t, result.ChartData.Data, 3)

	// Three invocations in one round, answered in request order.
	require.Len(t, session.sentResults, 1)
	require.Len(t, session.sentResults[0], 3)
	for _, r := range session.sentResults[0] {
		assert.Equal(t, GeocodeCapability, r.Name)
	}
}

func TestAnalyze_NumericComparisonBecomesChart(t *testing.T) {
	session := &scriptedSession{
		script: []*genai.Reply{
			{Text: `{
				"visualizationType": "chart",
				"mapData": [],
				"chartData": {
					"type": "bar",
					"title": "Average Trip Distance by Age Group",
					"xAxisLabel": "Age Group",
					"yAxisLabel": "Miles",
					"data": [
						{"name": "18-24", "value": 2.82},
						{"name": "25-34", "value": 3.15}
					]
				},
				"reasoning": "Numeric comparison with no locations"
			}`},
		},
	}

	o := newTestOrchestrator(t, &scriptedFactory{session: session}, testGeocodeRegistry(nil), 4)
	result := o.Analyze(context.Background(), "Average distance for 18-24 is 2.82 miles, for 25-34 it is 3.15 miles")

	require.NotNil(t, result)
	assert.Equal(t, models.VisualizationChart, result.VisualizationType)
	assert.Empty(t, result.MapData)
	require.NotNil(t, result.ChartData)
	assert.Len(t, result.ChartData.Data, 2)
	assert.InDelta(t, 2.82, result.ChartData.Data[0].Value, 0.001)

	// No geocoding requested, no capability rounds.
	assert.Empty(t, session.sentResults)
}

func TestAnalyze_UnknownAddressAnsweredWithNull(t *testing.T) {
	session := &scriptedSession{
		script: []*genai.Reply{
			{Calls: []genai.CapabilityCall{geocodeCall("nowhere at all")}},
			{Text: `{"visualizationType": "none", "mapData": [], "chartData": null, "reasoning": "Location could not be resolved"}`},
		},
	}

	o := newTestOrchestrator(t, &scriptedFactory{session: session}, testGeocodeRegistry(nil), 4)
	result := o.Analyze(context.Background(), "People often go to nowhere at all")

	require.NotNil(t, result)
	assert.Equal(t, models.VisualizationNone, result.VisualizationType)

	require.Len(t, session.sentResults, 1)
	require.Len(t, session.sentResults[0], 1)
	assert.Nil(t, session.sentResults[0][0].Response)
}

func TestAnalyze_SessionGetsCapabilityDeclarations(t *testing.T) {
	factory := &scriptedFactory{session: &scriptedSession{
		script: []*genai.Reply{{Text: `{"visualizationType": "none", "mapData": []}`}},
	}}

	o := newTestOrchestrator(t, factory, testGeocodeRegistry(nil), 4)
	o.Analyze(context.Background(), "hello")

	require.Len(t, factory.tools, 1)
	assert.Equal(t, GeocodeCapability, factory.tools[0].Name)
}
