package web

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers workflow routes. Run endpoints sit behind the
// access gate when an app password is configured.
func RegisterRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/healthz", handler.Health)

	runs := r.Group("/runs")
	runs.Use(AppPassGate(handler.cfg.Gate.AppPass))
	{
		runs.POST("", handler.CreateRun)
		runs.GET("/:id/archive", handler.DownloadArchive)
	}
}

// AppPassGate rejects requests whose X-App-Pass header (or app_pass form
// field) does not match the configured password. An empty configured
// password leaves the gate open.
func AppPassGate(appPass string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appPass == "" {
			c.Next()
			return
		}
		supplied := c.GetHeader("X-App-Pass")
		if supplied == "" {
			supplied = c.PostForm("app_pass")
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(appPass)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
			return
		}
		c.Next()
	}
}
