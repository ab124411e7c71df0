package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ferredist/catalog-service/internal/database"
	"github.com/ferredist/catalog-service/internal/store"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Store    string `json:"store"`
	Database string `json:"database,omitempty"`
}

// HealthCheck handles the health check endpoint
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
		Store:  string(h.storeMode),
	}

	if h.storeMode == store.ModePostgres {
		if database.Pool() == nil {
			response.Database = "not configured"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		if err := database.Status(c.Request.Context()); err != nil {
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
	}

	c.JSON(http.StatusOK, response)
}
