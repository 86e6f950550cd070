package handler

import (
	"github.com/gin-gonic/gin"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/service"
)

type DatabaseHandler struct {
	databaseService *service.DatabaseService
}

func NewDatabaseHandler(databaseService *service.DatabaseService) *DatabaseHandler {
	return &DatabaseHandler{
		databaseService: databaseService,
	}
}

func (h *DatabaseHandler) CreateConnection(c *gin.Context) {
	var req model.CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.databaseService.CreateConnection(c.Request.Context(), &req, c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpstream(c, res, "DB Connection이 성공적으로 생성되었습니다.", "DB Connection 생성에 실패했습니다.")
}

func (h *DatabaseHandler) CreateCluster(c *gin.Context) {
	var req model.CreateClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.databaseService.CreateCluster(c.Request.Context(), &req, c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpstream(c, res, "클러스터가 성공적으로 생성되었습니다.", "클러스터 생성에 실패했습니다.")
}

func (h *DatabaseHandler) Upload(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.databaseService.Upload(c.Request.Context(), c.PostForm("targetUrl"), c.GetHeader("Authorization"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpstream(c, res, "", "데이터베이스 업로드에 실패했습니다.")
}
