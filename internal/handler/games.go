package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"sports-relay/internal/config"
	"sports-relay/internal/model"
	"sports-relay/internal/service"
)

// lookupFailedMessage is the fixed message of the error envelope.
const lookupFailedMessage = "An error occurred while fetching data."

// GamesHandler relays date lookups to the sports data API.
type GamesHandler struct {
	service *service.GamesService
	logger  *slog.Logger
	apiKey  string
}

// NewGamesHandler creates a GamesHandler.
func NewGamesHandler(svc *service.GamesService, cfg *config.Config, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		service: svc,
		logger:  logger.With("component", "games_handler"),
		apiKey:  cfg.Upstream.APIKey,
	}
}

// Lookup forwards the :date path segment upstream and answers 200 with the
// upstream JSON, or 500 with the error envelope.
func (h *GamesHandler) Lookup(c echo.Context) error {
	date := c.Param("date")
	if date == "" {
		return echo.ErrNotFound
	}

	req := &model.GamesRequest{
		Ctx:  c.Request().Context(),
		Date: date,
	}

	body, err := h.service.Lookup(req)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSONBlob(http.StatusOK, body)
}

func (h *GamesHandler) writeError(c echo.Context, err error) error {
	desc := h.sanitizeError(err)

	h.logger.Error("error fetching data from sports data API",
		"err", desc,
		"date", c.Param("date"),
		"upstream_status", upstreamStatus(err),
	)

	return c.JSON(http.StatusInternalServerError, model.ErrorEnvelope{
		Message: lookupFailedMessage,
		Error:   desc,
	})
}

// sanitizeError redacts the subscription key from error messages.
func (h *GamesHandler) sanitizeError(err error) string {
	msg := err.Error()
	if h.apiKey == "" {
		return msg
	}
	return strings.ReplaceAll(msg, h.apiKey, "[REDACTED]")
}

// upstreamStatus returns the upstream status code carried by err, or 0.
func upstreamStatus(err error) int {
	var se *service.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
