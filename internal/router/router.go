package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qp-hub-backend/internal/handler"
)

type Handlers struct {
	User      *handler.UserHandler
	Server    *handler.ServerHandler
	Database  *handler.DatabaseHandler
	Dashboard *handler.DashboardHandler
	Batch     *handler.BatchHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers, maxBodySize int64) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(handler.NotFound)

	api := r.Group("/api")
	api.Use(BodyLimit(maxBodySize))
	{
		api.GET("/dashboard", h.Dashboard.Dashboard)
		api.GET("/templates/:kind", h.Dashboard.Template)

		users := api.Group("/users")
		{
			users.POST("", h.User.Create)
			users.POST("/bulk", h.User.Bulk)
		}

		servers := api.Group("/servers")
		{
			servers.POST("", h.Server.Create)
		}

		databases := api.Group("/databases")
		{
			databases.POST("", h.Database.CreateConnection)
			databases.POST("/clusters", h.Database.CreateCluster)
		}

		upload := api.Group("/upload")
		{
			upload.POST("/server", h.Server.Upload)
			upload.POST("/database", h.Database.Upload)
		}

		batches := api.Group("/batches")
		{
			batches.POST("", h.Batch.Import)
			batches.GET("/:id", h.Batch.Get)
			batches.DELETE("/:id", h.Batch.Delete)
			batches.POST("/:id/submit", h.Batch.Submit)
			batches.POST("/:id/retry", h.Batch.Retry)
			batches.GET("/:id/events", h.Batch.Events)
			batches.GET("/:id/export", h.Batch.Export)
			batches.POST("/:id/records", h.Batch.AddRecord)
			batches.DELETE("/:id/records", h.Batch.ClearRecords)
			batches.PUT("/:id/records/:recordId", h.Batch.UpdateRecord)
			batches.DELETE("/:id/records/:recordId", h.Batch.RemoveRecord)
			batches.POST("/:id/records/:recordId/retry", h.Batch.RetryRecord)
		}
	}
}

// BodyLimit caps request bodies; multipart parsing fails once the cap is hit.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
