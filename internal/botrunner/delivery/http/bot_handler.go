package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/service"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	defaultLogLimit = 20
	maxLogLimit     = 200
)

// BotHandler handles HTTP requests for bot runs.
type BotHandler struct {
	botRunner service.BotRunnerService
	logger    *logger.Logger
}

// NewBotHandler creates a new BotHandler.
func NewBotHandler(botRunner service.BotRunnerService, logger *logger.Logger) *BotHandler {
	return &BotHandler{botRunner: botRunner, logger: logger}
}

// RegisterRoutes registers the bot routes to the Echo group.
func (h *BotHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/run-due", h.RunDueBots)
	g.POST("/:id/run", h.RunBot)
	g.GET("/:id/logs", h.GetRunLogs)
}

// RunDueBots godoc
// @Summary Run all due bots
// @Description Runs every active bot whose interval has elapsed, one after another
// @Tags bots
// @Produce  json
// @Param   dry_run  query    bool false  "Record actions without persisting forecasts or stakes"
// @Success 200 {array} dto.RunSummary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /bots/run-due [post]
func (h *BotHandler) RunDueBots(c echo.Context) error {
	dryRun, err := parseDryRun(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid dry_run value"})
	}

	summaries, err := h.botRunner.RunDueBots(c.Request().Context(), dryRun)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, summaries)
}

// RunBot godoc
// @Summary Run one bot
// @Description Runs a single bot immediately, ignoring its interval
// @Tags bots
// @Produce  json
// @Param   id       path     string true   "Bot ID"
// @Param   dry_run  query    bool   false  "Record actions without persisting forecasts or stakes"
// @Success 200 {object} dto.RunSummary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /bots/{id}/run [post]
func (h *BotHandler) RunBot(c echo.Context) error {
	dryRun, err := parseDryRun(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid dry_run value"})
	}

	summary, err := h.botRunner.RunBotByID(c.Request().Context(), c.Param("id"), dryRun)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}

// GetRunLogs godoc
// @Summary Get a bot's latest run log entries
// @Tags bots
// @Produce  json
// @Param   id     path     string true   "Bot ID"
// @Param   limit  query    int    false  "Number of entries (default 20, max 200)"
// @Success 200 {array} dto.RunLogResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /bots/{id}/logs [get]
func (h *BotHandler) GetRunLogs(c echo.Context) error {
	limit := defaultLogLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
		}
		limit = min(n, maxLogLimit)
	}

	logs, err := h.botRunner.RecentLogs(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return h.handleError(c, err)
	}

	resp := make([]dto.RunLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, toRunLogResponse(l))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BotHandler) handleError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrBotNotFound):
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrRunInProgress):
		return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("Bot request failed", logger.ErrorField(err), logger.StringField("path", c.Path()))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
}

func parseDryRun(c echo.Context) (bool, error) {
	raw := c.QueryParam("dry_run")
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func toRunLogResponse(l entity.BotRunLog) dto.RunLogResponse {
	resp := dto.RunLogResponse{
		ID:            l.ID,
		Action:        string(l.Action),
		IsDryRun:      l.IsDryRun,
		ForecastID:    l.ForecastID,
		GeneratedText: l.GeneratedText,
		Error:         l.Error,
		RunAt:         l.RunAt,
	}
	if len(l.TriggerNews) > 0 {
		var trigger entity.TriggerNews
		if err := json.Unmarshal(l.TriggerNews, &trigger); err == nil {
			resp.TriggerNews = &trigger
		}
	}
	return resp
}
