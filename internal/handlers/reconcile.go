package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ferredist/catalog-service/internal/reconcile"
	"github.com/ferredist/catalog-service/internal/types"
	"github.com/ferredist/catalog-service/internal/workbook"
)

// ReconcileRequest represents a request body for triggering a reconcile run
type ReconcileRequest struct {
	// Discount is the operator discount override, e.g. "20" or "0.20".
	// Empty means the sheet header cell or the configured default decides.
	Discount string `json:"discount,omitempty"`
	// Template selects the workbook layout; empty uses the configured default
	Template string `json:"template,omitempty"`
	// File reconciles a specific stored file instead of the latest upload
	File string `json:"file,omitempty"`
}

// TriggerReconcile runs a price reconciliation synchronously
// @Summary Reconcile supplier prices into the catalog
// @Description Extracts the uploaded supplier price list, recomputes web prices and merges the result into the catalog. Runs are serialized: a second request while one is in progress gets 409.
// @Tags reconcile
// @Accept json
// @Produce json
// @Param request body ReconcileRequest false "Run options"
// @Success 200 {object} types.RunResult
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 409 {object} map[string]string "Run already in progress"
// @Failure 422 {object} map[string]string "Run failed"
// @Router /internal/admin/reconcile [post]
func (h *Handlers) TriggerReconcile(c *gin.Context) {
	var req ReconcileRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
			return
		}
	}

	if req.Template != "" && !workbook.IsValidLayout(req.Template) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     fmt.Sprintf("unknown template %q", req.Template),
			"templates": workbook.LayoutNames(),
		})
		return
	}

	file := req.File
	if file == "" {
		key, exists, err := h.currentUploadKey(c.Request.Context())
		if err != nil || !exists {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "no supplier workbook uploaded, upload one first or pass a file path",
			})
			return
		}
		file = h.uploads.Path(key)
	}

	result, err := h.engine.Run(c.Request.Context(), reconcile.Params{
		File:             file,
		Template:         req.Template,
		DiscountOverride: req.Discount,
		Source:           types.SourceAPI,
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "a reconcile run is already in progress"})
			return
		}
		log.Error().Err(err).Str("file", file).Msg("Reconcile run failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListTemplates returns the known workbook layouts
// @Summary List workbook templates
// @Tags reconcile
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /internal/admin/templates [get]
func (h *Handlers) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": workbook.LayoutNames()})
}
