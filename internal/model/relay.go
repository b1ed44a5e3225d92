// Package model defines shared types for the relay.
package model

import (
	"context"
	"io"
	"net/http"
)

// GamesRequest is a lookup of the games scheduled on a date. Date is the
// raw path segment from the inbound request and is never parsed.
type GamesRequest struct {
	Ctx  context.Context
	Date string
}

// UpstreamResponse is the raw reply from the sports data API.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ErrorEnvelope is the JSON body returned to callers when a lookup fails.
type ErrorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
