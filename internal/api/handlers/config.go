package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pocketrush/internal/config"
)

// GetConfig returns the tuning new tables are racked with, for renderers
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		t := cfg.Tuning()
		c.JSON(http.StatusOK, gin.H{
			"tuning":            t,
			"frame_interval_ms": float64(t.FrameInterval) / float64(time.Millisecond),
		})
	}
}
