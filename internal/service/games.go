// Package service implements the games lookup relayed to the sports data API.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"sports-relay/internal/client"
	"sports-relay/internal/config"
	"sports-relay/internal/metrics"
	"sports-relay/internal/model"
)

// SubscriptionKeyHeader carries the upstream API key.
const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

const userAgent = "sports-relay/1.0"

// ErrUpstreamNotConfigured is returned when no upstream base URL is set.
var ErrUpstreamNotConfigured = errors.New("upstream base URL is not configured")

// ErrMalformedBody is returned when the upstream replies with a body that is not JSON.
var ErrMalformedBody = errors.New("upstream returned a malformed JSON body")

// emptyBody is relayed when the upstream answers 2xx without a payload.
var emptyBody = json.RawMessage(`""`)

// StatusError reports a non-2xx reply from the upstream.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.StatusCode)
}

// GamesService builds upstream requests for date lookups and validates
// the replies.
type GamesService struct {
	client  *client.SportsDataClient
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	baseURL *url.URL
}

// NewGamesService creates a GamesService. An empty base URL is accepted;
// lookups then fail with ErrUpstreamNotConfigured. The metrics parameter is
// optional.
func NewGamesService(c *client.SportsDataClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*GamesService, error) {
	s := &GamesService{
		client:  c,
		cfg:     cfg,
		logger:  logger.With("component", "games_service"),
		metrics: m,
	}

	if cfg.Upstream.BaseURL != "" {
		u, err := url.Parse(cfg.Upstream.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse upstream base_url: %w", err)
		}
		s.baseURL = u
	}

	return s, nil
}

// Lookup fetches the games for req.Date from the upstream and returns the
// body unmodified. Exactly one upstream request is made; there are no retries.
func (s *GamesService) Lookup(req *model.GamesRequest) (json.RawMessage, error) {
	if s.baseURL == nil {
		s.recordFailure(metrics.ReasonNotConfigured)
		return nil, ErrUpstreamNotConfigured
	}

	upstreamURL := s.buildUpstreamURL(req.Date)

	s.logger.Debug("looking up games", "date", req.Date)

	resp, err := s.client.Get(req.Ctx, upstreamURL, s.requestHeader())
	if err != nil {
		s.recordFailure(metrics.ReasonTransport)
		return nil, fmt.Errorf("fetch games for %s: %w", req.Date, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		s.recordFailure(metrics.ReasonStatus)
		return nil, fmt.Errorf("fetch games for %s: %w", req.Date, &StatusError{StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.recordFailure(metrics.ReasonTransport)
		return nil, fmt.Errorf("fetch games for %s: read body: %w", req.Date, err)
	}

	if len(body) == 0 {
		return emptyBody, nil
	}
	if !json.Valid(body) {
		s.recordFailure(metrics.ReasonMalformed)
		return nil, fmt.Errorf("fetch games for %s: %w", req.Date, ErrMalformedBody)
	}

	return body, nil
}

// buildUpstreamURL appends "/" and the date to the base URL path as-is.
// The path is not cleaned, so a base URL ending in "/" yields "//".
func (s *GamesService) buildUpstreamURL(date string) string {
	u := *s.baseURL
	u.Path = s.baseURL.Path + "/" + date
	u.RawPath = ""
	return u.String()
}

func (s *GamesService) requestHeader() http.Header {
	h := make(http.Header)
	h.Set(SubscriptionKeyHeader, s.cfg.Upstream.APIKey)
	h.Set("Accept", "application/json")
	h.Set("User-Agent", userAgent)
	return h
}

func (s *GamesService) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.UpstreamFailures.WithLabelValues(reason).Inc()
	}
}
