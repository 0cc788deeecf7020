package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/veloria/storefront/internal/category"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Redis      string `json:"redis"`
	Database   string `json:"database"`
	Categories string `json:"categories"`
}

// HealthHandler reports component status. Any optional dependency left nil
// is reported as not configured rather than failing the check.
type HealthHandler struct {
	redis      *redis.Client
	db         *pgxpool.Pool
	categories *category.Service
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(rdb *redis.Client, db *pgxpool.Pool, categories *category.Service) *HealthHandler {
	return &HealthHandler{redis: rdb, db: db, categories: categories}
}

// Check handles the health check endpoint
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	response := HealthResponse{Status: "ok"}
	status := http.StatusOK

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			response.Redis = "disconnected"
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			response.Redis = "connected"
		}
	} else {
		response.Redis = "not configured"
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			response.Database = "disconnected"
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			response.Database = "connected"
		}
	} else {
		response.Database = "not configured"
	}

	// The category cache warms lazily, so an empty cache is informational.
	if h.categories != nil && h.categories.Initialized() {
		response.Categories = "loaded"
	} else {
		response.Categories = "not loaded"
	}

	c.JSON(status, response)
}
