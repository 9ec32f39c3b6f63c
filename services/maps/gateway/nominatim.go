package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/pkg/retry"
	"github.com/adiraj/gocab/services/maps"
)

// permanentError marks responses that a retry cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// NominatimClient resolves addresses against a Nominatim instance.
// Transient failures are retried with backoff; client errors are not.
type NominatimClient struct {
	baseURL string
	client  *http.Client
	retrier *retry.Retrier
}

// NewNominatimClient creates a geocoder backed by the given Nominatim base
// URL, e.g. https://nominatim.openstreetmap.org.
func NewNominatimClient(baseURL string, timeout time.Duration) *NominatimClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cfg := retry.DefaultConfig()
	cfg.Retryable = func(err error) bool {
		var perm *permanentError
		return !errors.As(err, &perm)
	}

	return &NominatimClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		retrier: retry.New(cfg),
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the best-ranked coordinates for an address.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (models.Coords, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	var results []nominatimResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return models.Coords{}, fmt.Errorf("%w: %v", errs.ErrGeocodeFailed, err)
	}
	if len(results) == 0 {
		return models.Coords{}, fmt.Errorf("%w: no results for %q", errs.ErrGeocodeFailed, address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coords{}, fmt.Errorf("%w: bad latitude %q", errs.ErrGeocodeFailed, results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coords{}, fmt.Errorf("%w: bad longitude %q", errs.ErrGeocodeFailed, results[0].Lon)
	}

	return models.Coords{Latitude: lat, Longitude: lng}, nil
}

// ReverseGeocode returns a display address for coordinates.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, coords models.Coords) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Set("format", "json")

	var result nominatimResult
	if err := c.get(ctx, "/reverse", q, &result); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrGeocodeFailed, err)
	}
	if result.DisplayName == "" {
		return "", fmt.Errorf("%w: no address at %.5f,%.5f", errs.ErrGeocodeFailed, coords.Latitude, coords.Longitude)
	}
	return result.DisplayName, nil
}

// Suggest returns address completions for a partial query.
func (c *NominatimClient) Suggest(ctx context.Context, query string, limit int) ([]maps.AddressSuggestion, error) {
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))

	var results []nominatimResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrGeocodeFailed, err)
	}

	suggestions := make([]maps.AddressSuggestion, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		suggestions = append(suggestions, maps.AddressSuggestion{
			DisplayName: r.DisplayName,
			Coords:      models.Coords{Latitude: lat, Longitude: lng},
		})
	}
	return suggestions, nil
}

func (c *NominatimClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return &permanentError{err: err}
		}
		req.Header.Set("User-Agent", "gocab-dispatch/1.0")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			// fall through to decode
		case resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("geocoder returned status %d", resp.StatusCode)
		default:
			return &permanentError{err: fmt.Errorf("geocoder returned status %d", resp.StatusCode)}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &permanentError{err: err}
		}
		return nil
	})
}
