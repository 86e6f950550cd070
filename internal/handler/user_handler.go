package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.userService.Create(c.Request.Context(), &req, c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpstream(c, res, "", "사용자 등록에 실패했습니다.")
}

func (h *UserHandler) Bulk(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.userService.Bulk(c.Request.Context(), c.PostForm("targetUrl"), c.GetHeader("Authorization"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
