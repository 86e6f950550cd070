package handler

import (
	"github.com/gin-gonic/gin"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/service"
)

type ServerHandler struct {
	serverService *service.ServerService
}

func NewServerHandler(serverService *service.ServerService) *ServerHandler {
	return &ServerHandler{
		serverService: serverService,
	}
}

func (h *ServerHandler) Create(c *gin.Context) {
	var req model.CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.serverService.Create(c.Request.Context(), &req, c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpstream(c, res, "서버가 성공적으로 생성되었습니다.", "서버 생성에 실패했습니다.")
}

func (h *ServerHandler) Upload(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.serverService.Upload(c.Request.Context(), c.PostForm("targetUrl"), c.GetHeader("Authorization"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpstream(c, res, "", "서버 업로드에 실패했습니다.")
}
