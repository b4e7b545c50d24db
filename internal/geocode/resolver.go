// internal/geocode/resolver.go
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"rideviz/internal/common/logger"
	"rideviz/internal/common/metrics"
	"rideviz/internal/models"
)

var (
	ErrGeocodingFailed = errors.New("GEOCODING_FAILED")
)

// Resolver resolves free-text addresses against an external geocoding
// service. It is stateless; each lookup is independent.
type Resolver struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logger.Logger
}

func NewResolver(baseURL, apiKey string, log logger.Logger) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// No timeout here: one slow lookup just delays that one
		// location, the analysis context bounds the whole run.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "geocode",
		}),
	}
}

type geocodeResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// Resolve returns the first candidate for the address, or (nil, nil) when
// the service has no candidate. Callers treat a nil result as "omit this
// location"; only transport/decode problems surface as errors, and callers
// are expected to swallow those into absence too.
func (r *Resolver) Resolve(ctx context.Context, address string) (*models.GeocodeResult, error) {
	endpoint := fmt.Sprintf("%s/maps/api/geocode/json?address=%s&key=%s",
		r.baseURL, url.QueryEscape(address), url.QueryEscape(r.apiKey))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: status %d", ErrGeocodingFailed, resp.StatusCode)
	}

	var geoResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decode error: %v", ErrGeocodingFailed, err)
	}

	if len(geoResp.Results) == 0 {
		r.logger.Warn("no geocoding candidate", map[string]interface{}{
			"address": address,
			"status":  geoResp.Status,
		})
		metrics.GeocodeLookups.WithLabelValues("absent").Inc()
		return nil, nil
	}

	// First candidate only, no disambiguation.
	first := geoResp.Results[0]
	metrics.GeocodeLookups.WithLabelValues("resolved").Inc()

	return &models.GeocodeResult{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}
