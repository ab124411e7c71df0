package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ferredist/catalog-service/internal/reconcile"
	"github.com/ferredist/catalog-service/internal/types"
)

// ListRunsResponse represents the response for listing reconcile runs
type ListRunsResponse struct {
	Runs  []*types.RunRecord `json:"runs"`
	Count int                `json:"count"`
}

// ListRuns returns recent reconcile runs, newest first
// @Summary List reconcile runs
// @Tags reconcile
// @Produce json
// @Param limit query int false "Number of runs to return" default(20) minimum(1) maximum(100)
// @Success 200 {object} ListRunsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/reconcile/runs [get]
func (h *Handlers) ListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	runs, err := h.engine.Runs().List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	// The list view drops per-run detail; fetch a single run for it
	summaries := make([]*types.RunRecord, 0, len(runs))
	for _, run := range runs {
		summary := *run
		summary.Detail = nil
		summaries = append(summaries, &summary)
	}

	c.JSON(http.StatusOK, ListRunsResponse{Runs: summaries, Count: len(summaries)})
}

// GetRun returns one reconcile run with its full detail
// @Summary Get a reconcile run
// @Tags reconcile
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} types.RunRecord
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/reconcile/runs/{runId} [get]
func (h *Handlers) GetRun(c *gin.Context) {
	run, err := h.engine.Runs().Get(c.Request.Context(), c.Param("runId"))
	if err != nil {
		if errors.Is(err, reconcile.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}

	c.JSON(http.StatusOK, run)
}
