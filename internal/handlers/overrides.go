package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ferredist/catalog-service/internal/catalog"
	"github.com/ferredist/catalog-service/internal/store"
)

// GetOverride returns the entry an operator wants to curate
// @Summary Get a catalog entry for curation
// @Tags curation
// @Produce json
// @Param code path string true "Product code"
// @Success 200 {object} catalog.Entry
// @Failure 404 {object} map[string]string "Not found"
// @Router /internal/catalog/{code}/override [get]
func (h *Handlers) GetOverride(c *gin.Context) {
	code := c.Param("code")
	entry, err := h.store.Get(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no catalog entry for code %s", code)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entry"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// PutOverride applies an operator edit to an entry's curated fields.
// Fields absent from the body are left unchanged; sending an empty string
// clears a text field. Reconcile runs never touch curated fields, so
// these edits survive every price refresh.
// @Summary Update curated fields of a catalog entry
// @Tags curation
// @Accept json
// @Produce json
// @Param code path string true "Product code"
// @Param update body catalog.CuratedUpdate true "Curated field changes"
// @Success 200 {object} catalog.Entry
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Not found"
// @Router /internal/catalog/{code}/override [put]
func (h *Handlers) PutOverride(c *gin.Context) {
	code := c.Param("code")

	var update catalog.CuratedUpdate
	if err := c.BindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if update.PromoPrice != nil && *update.PromoPrice < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "promo_price must not be negative"})
		return
	}

	entry, err := h.store.UpdateCurated(c.Request.Context(), code, update, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no catalog entry for code %s", code)})
			return
		}
		log.Error().Err(err).Str("code", code).Msg("Failed to apply curated update")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update entry"})
		return
	}

	log.Info().Str("code", code).Msg("Curated fields updated")
	c.JSON(http.StatusOK, entry)
}
