package handler

import (
	"context"
	"net/http"
	"time"

	"notemate/utils"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Check reports whether a backing service answers.
type Check func(ctx context.Context) error

type Health struct {
	Env       string
	Build     string
	Database  Check
	Redis     Check
	StartedAt time.Time
}

type healthStatus struct {
	Message     string              `json:"message"`
	Timestamp   time.Time           `json:"timestamp"`
	Environment string              `json:"environment"`
	Build       string              `json:"build"`
	Uptime      string              `json:"uptime"`
	Database    string              `json:"database"`
	Redis       string              `json:"redis"`
	Mongo       utils.MongoMetrics  `json:"mongo"`
	System      utils.SystemMetrics `json:"system"`
}

func probe(ctx context.Context, check Check) string {
	if check == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := check(ctx); err != nil {
		return "down"
	}
	return "up"
}

// Handle answers 503 when the database is unreachable. A Redis outage only
// degrades caching and rate limiting, so it is reported but stays 200.
func (h *Health) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	status := healthStatus{
		Message:     "NoteMate API is running!",
		Timestamp:   time.Now().UTC(),
		Environment: h.Env,
		Build:       h.Build,
		Uptime:      time.Since(h.StartedAt).Round(time.Second).String(),
		Database:    probe(ctx, h.Database),
		Redis:       probe(ctx, h.Redis),
		Mongo:       utils.GetMongoMetrics(),
		System:      utils.GetSystemMetrics(),
	}

	code := http.StatusOK
	if status.Database == "down" {
		code = http.StatusServiceUnavailable
		status.Message = "NoteMate API is degraded"
	}
	c.JSON(code, &utils.Response{Success: code == http.StatusOK, Data: status})
}
