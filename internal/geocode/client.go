// Package geocode resolves coordinates into a place label using a
// Nominatim-compatible reverse geocoding service. Lookups are best effort:
// callers fill a form field on success and ignore failures.
package geocode

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/TheMichaelB/triplog/internal/config"
	"github.com/TheMichaelB/triplog/internal/events"
)

// Errors returned by Reverse.
var (
	ErrDisabled    = errors.New("reverse geocoding disabled")
	ErrNoResult    = errors.New("no place found")
	ErrCoordinates = errors.New("coordinates out of range")
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Address is the structured part of a reverse lookup.
type Address struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	Suburb      string `json:"suburb"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
}

// Locality returns the most specific settlement name.
func (a Address) Locality() string {
	for _, s := range []string{a.City, a.Town, a.Village, a.Suburb} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Place is a reverse geocoding result.
type Place struct {
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
	Error       string  `json:"error,omitempty"`
}

// Label returns a short "Road 12, City" form, falling back to the full
// display name.
func (p Place) Label() string {
	street := strings.TrimSpace(p.Address.Road + " " + p.Address.HouseNumber)
	locality := p.Address.Locality()
	switch {
	case street != "" && locality != "":
		return street + ", " + locality
	case street != "":
		return street
	case locality != "":
		return locality
	default:
		return p.DisplayName
	}
}

// Client performs reverse lookups.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	language  string
	logger    *events.Logger
	enabled   bool

	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a client from config.
func NewClient(cfg *config.GeocodeConfig, logger *events.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			NextProtos: []string{"h2", "http/1.1"},
		},
	}

	logger = logger.WithField("component", "geocode")
	if err := http2.ConfigureTransport(transport); err != nil {
		logger.WithError(err).Warn("Failed to configure HTTP/2")
	}

	return &Client{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		enabled:    cfg.Enabled,
		maxRetries: cfg.MaxRetries,
		retryDelay: 500 * time.Millisecond,
		logger:     logger,
	}
}

// SetLanguage sets the preferred result language (Accept-Language).
func (c *Client) SetLanguage(lang string) {
	c.language = lang
}

// Reverse looks up the place at lat, lon.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	if !c.enabled {
		return Place{}, ErrDisabled
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Place{}, ErrCoordinates
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("addressdetails", "1")
	endpoint := c.baseURL + "/reverse?" + q.Encode()

	c.logger.WithFields(map[string]interface{}{
		"lat": lat,
		"lon": lon,
	}).Debug("Reverse geocoding")

	var body []byte
	err := c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		if c.language != "" {
			req.Header.Set("Accept-Language", c.language)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		body = data
		return nil
	})
	if err != nil {
		return Place{}, err
	}

	var place Place
	if err := json.Unmarshal(body, &place); err != nil {
		return Place{}, fmt.Errorf("parse response: %w", err)
	}
	if place.Error != "" || place.Label() == "" {
		return Place{}, ErrNoResult
	}

	return place, nil
}

// retry executes fn with exponential backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
			}).Debug("Retrying request")

			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return isRetryable(statusErr.StatusCode)
	}
	// Network errors are retryable.
	return true
}

// ParseCoordinates reads "lat,lon".
func ParseCoordinates(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: want lat,lon", ErrCoordinates)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, ErrCoordinates
	}
	return lat, lon, nil
}
