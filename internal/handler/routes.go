package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, games *GamesHandler, health *HealthHandler) {
	e.GET("/", health.Root)
	e.GET("/games/:date", games.Lookup)
}
