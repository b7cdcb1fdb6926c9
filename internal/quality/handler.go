package quality

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vigil/internal/constants"
	"vigil/internal/logger"
	pkgerrors "vigil/pkg/errors"
)

// Runner triggers validation runs. The coordinator implements it; tests
// substitute stubs.
type Runner interface {
	Run(ctx context.Context, opts RunOptions) (*Batch, error)
}

// LatestCache serves the newest run without touching the audit backend.
// A nil view means a cache miss.
type LatestCache interface {
	Latest(ctx context.Context) (*LatestRunView, error)
}

type TriggerRunRequest struct {
	RunID    string   `json:"run_id,omitempty"`
	Datasets []string `json:"datasets,omitempty"`
}

type RunResponse struct {
	Run       RunInfo       `json:"run"`
	ElapsedMs int64         `json:"elapsed_ms"`
	Results   []CheckResult `json:"results"`
}

type Handler struct {
	runner  Runner
	history History
	catalog *Catalog
	cache   LatestCache
	log     logger.Logger
}

// NewHandler wires the API surface. cache may be nil when no Redis is
// configured; latest-run reads then always hit the history.
func NewHandler(runner Runner, history History, catalog *Catalog, cache LatestCache, log logger.Logger) *Handler {
	return &Handler{
		runner:  runner,
		history: history,
		catalog: catalog,
		cache:   cache,
		log:     log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		runs := v1.Group("/runs")
		{
			runs.POST("", h.TriggerRun)
			runs.GET("", h.ListRuns)
			runs.GET("/latest", h.GetLatestRun)
			runs.GET("/:id/results", h.GetRunResults)
		}

		v1.GET("/results", h.ListResults)
		v1.GET("/catalog", h.GetCatalog)
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.log.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := pkgerrors.ToHTTPStatus(err)
	response := pkgerrors.ToErrorResponse(err)

	c.JSON(status, response)
}

// TriggerRun godoc
// @Summary      Execute a validation run
// @Description  Run every active check and append the batch to the audit history
// @Tags         runs
// @Accept       json
// @Produce      json
// @Param        run  body       TriggerRunRequest  false  "Optional run id and dataset restriction"
// @Success      201  {object}   RunResponse
// @Failure      400  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /runs [post]
func (h *Handler) TriggerRun(c *gin.Context) {
	var req TriggerRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithCause(err)))
			return
		}
	}

	batch, err := h.runner.Run(c.Request.Context(), RunOptions{
		RunID:    req.RunID,
		Datasets: req.Datasets,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RunResponse{
		Run:       batch.Info(),
		ElapsedMs: batch.Elapsed.Milliseconds(),
		Results:   Sorted(batch.Results),
	})
}

// ListRuns godoc
// @Summary      List recent runs
// @Description  Get per-run aggregates from the audit history, newest first
// @Tags         runs
// @Accept       json
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of runs to return (1-1000)" default(100)
// @Success      200    {array}   RunInfo
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	runs, err := h.history.Runs(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

// GetLatestRun godoc
// @Summary      Get the newest run
// @Description  Get the newest run aggregate and its failures, served from cache when warm
// @Tags         runs
// @Accept       json
// @Produce      json
// @Success      200  {object}   LatestRunView
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /runs/latest [get]
func (h *Handler) GetLatestRun(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		view, err := h.cache.Latest(ctx)
		if err != nil {
			h.log.WarnwCtx(ctx, "Latest-run cache read failed, falling back to history", "error", err)
		} else if view != nil {
			c.JSON(http.StatusOK, view)
			return
		}
	}

	run, err := h.history.LatestRun(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}

	failures, err := h.history.Results(ctx, Filter{RunID: run.RunID, Status: StatusFail})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, LatestRunView{Run: *run, Failures: failures})
}

// GetRunResults godoc
// @Summary      Get the results of one run
// @Description  Get every check result recorded for a run id
// @Tags         runs
// @Accept       json
// @Produce      json
// @Param        id      path      string  true   "Run ID"
// @Param        status  query     string  false  "Filter by status (PASS or FAIL)"
// @Success      200     {array}   CheckResult
// @Failure      400     {object}  errors.ErrorResponse
// @Failure      500     {object}  errors.ErrorResponse
// @Router       /runs/{id}/results [get]
func (h *Handler) GetRunResults(c *gin.Context) {
	status, ok := parseStatus(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(
			pkgerrors.ErrValidation.WithDetail("message", "status must be PASS or FAIL")))
		return
	}

	results, err := h.history.Results(c.Request.Context(), Filter{
		RunID:  c.Param("id"),
		Status: status,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ListResults godoc
// @Summary      Query the audit history
// @Description  Get historical check results with optional filters, newest run first
// @Tags         results
// @Accept       json
// @Produce      json
// @Param        run_id      query     string  false  "Filter by run id"
// @Param        table_name  query     string  false  "Filter by table name"
// @Param        check_name  query     string  false  "Filter by check name"
// @Param        status      query     string  false  "Filter by status (PASS or FAIL)"
// @Param        limit       query     int     false  "Maximum number of results to return (1-1000)" default(100)
// @Param        offset      query     int     false  "Number of results to skip"
// @Success      200         {array}   CheckResult
// @Failure      400         {object}  errors.ErrorResponse
// @Failure      500         {object}  errors.ErrorResponse
// @Router       /results [get]
func (h *Handler) ListResults(c *gin.Context) {
	status, ok := parseStatus(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(
			pkgerrors.ErrValidation.WithDetail("message", "status must be PASS or FAIL")))
		return
	}

	results, err := h.history.Results(c.Request.Context(), Filter{
		RunID:     c.Query("run_id"),
		TableName: c.Query("table_name"),
		CheckName: c.Query("check_name"),
		Status:    status,
		Limit:     parseLimit(c.Query("limit")),
		Offset:    parseOffset(c.Query("offset")),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetCatalog godoc
// @Summary      List active rules
// @Description  Get the active rule catalog after overrides and custom rules are applied
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Success      200  {array}   Rule
// @Router       /catalog [get]
func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Rules())
}

func parseLimit(limitStr string) int {
	if limitStr == "" {
		return constants.DefaultLimit
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > constants.MaxLimit {
		return constants.DefaultLimit
	}
	return parsed
}

func parseOffset(offsetStr string) int {
	if offsetStr == "" {
		return 0
	}
	parsed, err := strconv.Atoi(offsetStr)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func parseStatus(statusStr string) (Status, bool) {
	switch Status(statusStr) {
	case "", StatusPass, StatusFail:
		return Status(statusStr), true
	default:
		return "", false
	}
}
