// internal/analysis/orchestrator.go
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rideviz/internal/common/logger"
	"rideviz/internal/common/metrics"
	"rideviz/internal/common/observability"
	"rideviz/internal/genai"
	"rideviz/internal/geocode"
	"rideviz/internal/models"
	"rideviz/pkg/capability"
)

const GeocodeCapability = "geocodeAddress"

var (
	ErrModelProtocolExceeded = errors.New("MODEL_PROTOCOL_EXCEEDED")
)

// Orchestrator drives one model conversation per bot message: prompt in,
// capability-invocation rounds in the middle, structured JSON out.
//
// Analyze never fails: every failure mode terminates in the sentinel
// "nothing to visualize" result, so nothing downstream needs error handling.
type Orchestrator struct {
	sessions  genai.SessionFactory
	caps      *capability.Registry
	maxRounds int
	logger    logger.Logger
	obs       *observability.Observability
}

func NewOrchestrator(sessions genai.SessionFactory, caps *capability.Registry, maxRounds int, log logger.Logger, obs *observability.Observability) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		caps:      caps,
		maxRounds: maxRounds,
		logger: log.With(map[string]interface{}{
			"component": "analysis",
		}),
		obs: obs,
	}
}

// NewGeocodeRegistry builds the capability registry every session is
// configured with: the single geocodeAddress capability backed by the
// resolver. A failed or empty lookup answers the model with null, matching
// the resolver's "absent, not fatal" contract.
func NewGeocodeRegistry(resolver *geocode.Resolver, log logger.Logger) *capability.Registry {
	reg := capability.NewRegistry()
	reg.Register(capability.Capability{
		Declaration: genai.FunctionDeclaration{
			Name:        GeocodeCapability,
			Description: "Get latitude and longitude coordinates for an address",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"address": map[string]interface{}{
						"type":        "string",
						"description": "The address to geocode",
					},
				},
				"required": []string{"address"},
			},
		},
		Invoke: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			address, _ := args["address"].(string)
			if address == "" {
				return nil, nil
			}
			result, err := resolver.Resolve(ctx, address)
			if err != nil {
				log.WithError(err).Warn("geocoding lookup failed", map[string]interface{}{
					"address": address,
				})
				return nil, nil
			}
			if result == nil {
				return nil, nil
			}
			return result, nil
		},
	})
	return reg
}

// Analyze classifies one bot message into an AnalysisResult.
func (o *Orchestrator) Analyze(ctx context.Context, message string) *models.AnalysisResult {
	start := time.Now()
	ctx, span := o.obs.StartSpan(ctx, "analysis.run")
	defer span.End()

	result, err := o.run(ctx, message)
	if err != nil {
		o.logger.WithError(err).Error("analysis degraded to sentinel", map[string]interface{}{
			"messageLength": len(message),
		})
		metrics.AnalysisRuns.WithLabelValues("sentinel").Inc()
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		o.obs.RecordAnalysis(ctx, "sentinel", time.Since(start))
		return models.SentinelResult(err.Error())
	}

	o.logger.Info("analysis completed", map[string]interface{}{
		"visualizationType": result.VisualizationType,
		"mapPoints":         len(result.MapData),
		"hasChart":          result.ChartData != nil,
	})
	metrics.AnalysisRuns.WithLabelValues(string(result.VisualizationType)).Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	o.obs.RecordAnalysis(ctx, string(result.VisualizationType), time.Since(start))
	return result
}

func (o *Orchestrator) run(ctx context.Context, message string) (*models.AnalysisResult, error) {
	session := o.sessions.NewSession(o.caps.Declarations())

	reply, err := session.SendText(ctx, BuildPrompt(message))
	if err != nil {
		return nil, err
	}

	rounds := 0
	for len(reply.Calls) > 0 {
		if rounds >= o.maxRounds {
			metrics.CapabilityRounds.Observe(float64(rounds))
			return nil, fmt.Errorf("%w: model still requesting capabilities after %d rounds", ErrModelProtocolExceeded, rounds)
		}
		rounds++

		o.logger.Debug("capability round", map[string]interface{}{
			"round": rounds,
			"calls": len(reply.Calls),
		})

		results := o.invokeRound(ctx, reply.Calls)
		reply, err = session.SendCapabilityResults(ctx, results)
		if err != nil {
			return nil, err
		}
	}
	metrics.CapabilityRounds.Observe(float64(rounds))

	return ParseResult(reply.Text)
}

// invokeRound runs one round's invocations concurrently. The calls are pure
// lookups with no ordering dependency on each other; results come back in
// request order so the model can match them up.
func (o *Orchestrator) invokeRound(ctx context.Context, calls []genai.CapabilityCall) []genai.CapabilityResult {
	results := make([]genai.CapabilityResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call genai.CapabilityCall) {
			defer wg.Done()
			response, err := o.caps.Invoke(ctx, call)
			if err != nil {
				o.logger.WithError(err).Warn("capability invocation failed", map[string]interface{}{
					"capability": call.Name,
				})
				response = nil
			}
			results[i] = genai.CapabilityResult{
				Name:     call.Name,
				Response: response,
			}
		}(i, call)
	}
	wg.Wait()

	return results
}
