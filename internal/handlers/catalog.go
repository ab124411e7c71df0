package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ferredist/catalog-service/internal/catalog"
	"github.com/ferredist/catalog-service/internal/metrics"
	"github.com/ferredist/catalog-service/internal/store"
)

// catalogCacheMaxAge is how long the storefront may cache the catalog
// payload before revalidating with If-None-Match.
const catalogCacheMaxAge = 600

// CatalogResponse represents the full catalog payload
type CatalogResponse struct {
	Entries []*catalog.Entry `json:"entries"`
	Count   int              `json:"count"`
	Hash    string           `json:"hash"`
}

// GetCatalog returns the full catalog with ETag revalidation
// @Summary Get the product catalog
// @Description Returns all catalog entries ordered by product code. Supports If-None-Match revalidation against the catalog content hash.
// @Tags catalog
// @Produce json
// @Success 200 {object} CatalogResponse
// @Success 304 "Not modified"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /catalog [get]
func (h *Handlers) GetCatalog(c *gin.Context) {
	entries, err := h.store.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog"})
		return
	}

	hash := catalog.ComputeHash(entries)
	etag := fmt.Sprintf("%q", hash)
	c.Header("ETag", etag)
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", catalogCacheMaxAge))

	if c.GetHeader("If-None-Match") == etag {
		metrics.ObserveCatalogRequest(true)
		c.Status(http.StatusNotModified)
		return
	}
	metrics.ObserveCatalogRequest(false)

	c.JSON(http.StatusOK, CatalogResponse{
		Entries: sortedEntries(entries),
		Count:   len(entries),
		Hash:    hash,
	})
}

// GetCatalogEntry returns a single catalog entry by product code
// @Summary Get one catalog entry
// @Tags catalog
// @Produce json
// @Param code path string true "Product code"
// @Success 200 {object} catalog.Entry
// @Failure 404 {object} map[string]string "Not found"
// @Router /catalog/{code} [get]
func (h *Handlers) GetCatalogEntry(c *gin.Context) {
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

// SearchCatalogResponse represents catalog search results
type SearchCatalogResponse struct {
	Entries []*catalog.Entry `json:"entries"`
	Count   int              `json:"count"`
	Query   string           `json:"query"`
}

// SearchCatalog searches the catalog by description, brand or code.
// Matching is case-insensitive and ignores accents, so "tornillería"
// and "TORNILLERIA" find the same products.
// @Summary Search the catalog
// @Tags catalog
// @Produce json
// @Param q query string true "Search terms"
// @Param limit query int false "Maximum results" default(50) minimum(1) maximum(200)
// @Success 200 {object} SearchCatalogResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Router /catalog/search [get]
func (h *Handlers) SearchCatalog(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	entries, err := h.store.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog"})
		return
	}

	normalized := catalog.NormalizeSearchText(query)
	var matched []*catalog.Entry
	for _, entry := range sortedEntries(entries) {
		if entry.Hidden {
			continue
		}
		if entry.MatchesQuery(normalized) {
			matched = append(matched, entry)
			if len(matched) >= limit {
				break
			}
		}
	}

	c.JSON(http.StatusOK, SearchCatalogResponse{
		Entries: matched,
		Count:   len(matched),
		Query:   query,
	})
}

func sortedEntries(entries map[string]*catalog.Entry) []*catalog.Entry {
	out := make([]*catalog.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
