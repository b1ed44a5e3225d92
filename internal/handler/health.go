package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// healthBody is the fixed liveness response.
const healthBody = "Sports API is running!"

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(v Version) *HealthHandler {
	return &HealthHandler{version: v}
}

// Root confirms the process is running. It never contacts the upstream.
func (h *HealthHandler) Root(c echo.Context) error {
	c.Response().Header().Set("X-Relay-Version", string(h.version))
	return c.String(http.StatusOK, healthBody)
}
