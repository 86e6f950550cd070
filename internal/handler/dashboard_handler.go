package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"qp-hub-backend/internal/export"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/pkg/utils"
)

type DashboardHandler struct {
	now func() time.Time
}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{now: time.Now}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, model.DashboardResponse{
		Success:   true,
		Message:   "HUB 시스템이 실행 중입니다.",
		Timestamp: h.now(),
	})
}

// Template serves the sample CSV for a kind as a download.
func (h *DashboardHandler) Template(c *gin.Context) {
	kind, ok := model.ParseKind(c.Param("kind"))
	if !ok {
		respondError(c, utils.NewValidationError("kind", c.Param("kind")))
		return
	}
	body, _ := export.Template(kind)
	c.Header("Content-Disposition", `attachment; filename="`+export.TemplateFilename(kind)+`"`)
	c.Data(http.StatusOK, export.FormatCSV.ContentType(), body)
}
