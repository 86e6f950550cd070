package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/upstream"
	"qp-hub-backend/pkg/utils"
)

const (
	msgInvalidRequest = "요청 파라미터가 올바르지 않습니다."
	msgFileRequired   = "CSV 파일이 필요합니다."
	msgFileType       = "CSV 또는 텍스트 파일만 업로드할 수 있습니다."
	msgFileTooLarge   = "업로드 파일이 너무 큽니다."
	msgNotFound       = "요청한 리소스를 찾을 수 없습니다."
)

var allowedUploadTypes = []string{"text/plain", "text/csv", "application/json"}

func respondError(c *gin.Context, err error) {
	apiErr := utils.AsAPIError(err)
	c.JSON(apiErr.HTTPStatus(), model.ErrorResponse{
		Success: false,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Success: false,
		Message: msgInvalidRequest,
		Details: err.Error(),
	})
}

// respondUpstream mirrors the external status; empty messages fall back to the given texts.
func respondUpstream(c *gin.Context, res *upstream.Result, okMessage, failMessage string) {
	if res.Success {
		msg := okMessage
		if msg == "" {
			msg = res.Message
		}
		c.JSON(res.Status, model.APIResponse{
			Success: true,
			Message: msg,
			Data:    res.Data,
		})
		return
	}
	msg := res.Error
	if msg == "" {
		msg = failMessage
	}
	apiErr := utils.NewUpstreamError(res.Status, msg)
	c.JSON(apiErr.HTTPStatus(), model.APIResponse{
		Success: false,
		Message: apiErr.Message,
		Error:   res.Error,
		Details: res.Details,
	})
}

// readUpload reads the multipart field and rejects binary content.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, &utils.APIError{Code: utils.CodeValidation, Message: msgFileTooLarge, Status: http.StatusRequestEntityTooLarge}
		}
		return nil, utils.NewRequiredError(msgFileRequired)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, utils.NewSystemError(errors.Wrap(err, "open upload"))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, utils.NewSystemError(errors.Wrap(err, "read upload"))
	}
	if !isText(data) {
		return nil, &utils.APIError{Code: utils.CodeValidation, Message: msgFileType, Details: fh.Filename}
	}
	return data, nil
}

func isText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		for _, allowed := range allowedUploadTypes {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}

// NotFound answers unmatched routes with the JSON error envelope.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, model.ErrorResponse{
		Success: false,
		Message: msgNotFound,
	})
}
