package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"ossy/internal/agents"
	"ossy/internal/domain/strategy"
	"ossy/internal/domain/token"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// BusyMessage is shown when a run is requested while another one is active
const BusyMessage = "An analysis is already running. Please wait for it to finish."

// AgentRunner runs the agent for a catalog strategy or a free-form prompt
type AgentRunner interface {
	Run(ctx context.Context, prompt string) *agents.Result
	RunStrategy(ctx context.Context, key string) (*agents.Result, error)
	Planner() agents.Planner
}

// TokenFilter is the screening pipeline exposed on /api/filter
type TokenFilter interface {
	FilterTokens(ctx context.Context, criteria token.FilterCriteria) ([]token.FilteredToken, error)
}

// Handler serves the pages and the JSON API
type Handler struct {
	runner AgentRunner
	filter TokenFilter
	guard  *RunGuard
	log    *logger.Logger
}

// NewHandler creates the web handler. guard may be shared with a metrics collector.
func NewHandler(runner AgentRunner, filter TokenFilter, guard *RunGuard) *Handler {
	if guard == nil {
		guard = &RunGuard{}
	}
	return &Handler{
		runner: runner,
		filter: filter,
		guard:  guard,
		log:    logger.Get().With("component", "web"),
	}
}

// RegisterRoutes mounts the UI and API routes
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.index)
	e.POST("/run", h.runPage)

	api := e.Group("/api")
	api.GET("/strategies", h.strategies)
	api.POST("/run", h.runAPI)
	api.POST("/filter", h.filterAPI)
}

type layoutData struct {
	Title   string
	Planner string
	Model   string
	Error   string
}

type indexPage struct {
	layoutData
	Strategies []strategy.Strategy
	Busy       bool
}

type resultPage struct {
	layoutData
	Strategy strategy.Strategy
	Result   *agents.Result
	Logs     []string
	Chart    *Chart
}

func (h *Handler) layout(title, errMsg string) layoutData {
	planner := h.runner.Planner()
	return layoutData{
		Title:   title,
		Planner: planner.Name(),
		Model:   planner.Model(),
		Error:   errMsg,
	}
}

func (h *Handler) renderIndex(c echo.Context, code int, errMsg string) error {
	return c.Render(code, pageIndex, indexPage{
		layoutData: h.layout("Strategies", errMsg),
		Strategies: strategy.Catalog(),
		Busy:       h.guard.Active(),
	})
}

func (h *Handler) index(c echo.Context) error {
	return h.renderIndex(c, http.StatusOK, "")
}

func (h *Handler) runPage(c echo.Context) error {
	s, err := strategy.Lookup(c.FormValue("strategy"))
	if err != nil {
		return h.renderIndex(c, http.StatusNotFound, "Unknown strategy.")
	}

	release, err := h.guard.Acquire()
	if err != nil {
		return h.renderIndex(c, http.StatusTooManyRequests, BusyMessage)
	}
	defer release()

	res, err := h.runner.RunStrategy(c.Request().Context(), string(s.ID))
	if err != nil {
		return errors.Wrap(err, "run strategy")
	}

	return c.Render(http.StatusOK, pageResult, resultPage{
		layoutData: h.layout(s.Title, ""),
		Strategy:   s,
		Result:     res,
		Logs:       res.Logs(),
		Chart:      NewChart(res.Tokens),
	})
}

func (h *Handler) strategies(c echo.Context) error {
	return c.JSON(http.StatusOK, strategy.Catalog())
}

type runRequest struct {
	Strategy string `json:"strategy" form:"strategy" validate:"required_without=Prompt,excluded_with=Prompt,max=64"`
	Prompt   string `json:"prompt" form:"prompt" validate:"required_without=Strategy,max=2000"`
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

func (h *Handler) runAPI(c echo.Context) error {
	var req runRequest
	if verrs := bindAndValidate(c, &req); verrs != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "invalid run request", Errors: verrs})
	}

	release, err := h.guard.Acquire()
	if err != nil {
		return c.JSON(http.StatusTooManyRequests, errorBody{Message: BusyMessage})
	}
	defer release()

	ctx := c.Request().Context()

	var res *agents.Result
	if key := strings.TrimSpace(req.Strategy); key != "" {
		res, err = h.runner.RunStrategy(ctx, key)
		if errors.Is(err, errors.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorBody{Message: "unknown strategy " + key})
		}
		if err != nil {
			return errors.Wrap(err, "run strategy")
		}
	} else {
		res = h.runner.Run(ctx, req.Prompt)
	}

	return c.JSON(http.StatusOK, res)
}

type filterRequest struct {
	token.FilterCriteria
	// Limit caps the returned rows
	Limit int `json:"limit" default:"100" validate:"gte=1,lte=500"`
}

func (h *Handler) filterAPI(c echo.Context) error {
	var req filterRequest
	if verrs := bindAndValidate(c, &req); verrs != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "invalid filter criteria", Errors: verrs})
	}

	tokens, err := h.filter.FilterTokens(c.Request().Context(), req.FilterCriteria)
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid filter criteria",
			Errors:  toValidationErrors(err),
		})
	case errors.Is(err, errors.ErrDataSourceUnavailable):
		h.log.Warnw("Filter request failed", "error", err)
		return c.JSON(http.StatusBadGateway, errorBody{Message: "market data source unavailable"})
	case err != nil:
		return errors.Wrap(err, "filter tokens")
	}

	if tokens == nil {
		tokens = []token.FilteredToken{}
	}
	if len(tokens) > req.Limit {
		tokens = tokens[:req.Limit]
	}
	return c.JSON(http.StatusOK, tokens)
}
