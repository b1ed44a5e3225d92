// Package client provides the upstream HTTP client for the sports data API.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"sports-relay/internal/config"
	"sports-relay/internal/metrics"
	"sports-relay/internal/model"
)

// SportsDataClient sends requests to the upstream sports data API.
type SportsDataClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewSportsDataClient creates a SportsDataClient with connection pooling.
// The overall request timeout comes from upstream.timeout_seconds; zero
// means the call is bounded only by the inbound request context.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewSportsDataClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *SportsDataClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &SportsDataClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "sportsdata_client"),
		metrics: m,
	}
}

// Do executes an HTTP request against the upstream and returns the raw response.
// The caller is responsible for closing the response body.
func (c *SportsDataClient) Do(req *http.Request) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via UpstreamResponse
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.Observe(duration)
	}
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// Get issues a GET for url with the given headers. The context controls
// the lifetime of the upstream request: when the inbound client goes away,
// the upstream call is canceled too.
func (c *SportsDataClient) Get(ctx context.Context, url string, header http.Header) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = header

	return c.Do(req)
}
