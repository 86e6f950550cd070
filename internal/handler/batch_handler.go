package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"qp-hub-backend/internal/export"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/service"
	"qp-hub-backend/pkg/utils"
)

type BatchHandler struct {
	batchService *service.BatchService
	events       *EventStream
}

func NewBatchHandler(batchService *service.BatchService, events *EventStream) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
		events:       events,
	}
}

func (h *BatchHandler) batch(c *gin.Context) (service.Batch, bool) {
	b, err := h.batchService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return b, true
}

func recordID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		respondError(c, utils.NewValidationError("recordId", c.Param("recordId")))
		return uuid.Nil, false
	}
	return id, true
}

// Import loads a CSV into a new or existing batch; without a file it opens an empty batch.
func (h *BatchHandler) Import(c *gin.Context) {
	raw := c.PostForm("kind")
	if raw == "" {
		raw = c.Query("kind")
	}
	kind, ok := model.ParseKind(raw)
	if !ok {
		respondError(c, utils.NewValidationError("kind", raw))
		return
	}

	if _, err := c.FormFile("file"); errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		b, err := h.batchService.Create(kind)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, model.ImportResponse{
			Success: true,
			Message: "빈 배치를 생성했습니다.",
			Batch:   b.View(1, 0),
		})
		return
	}

	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.batchService.Import(kind, c.PostForm("batchId"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BatchHandler) Get(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))
	c.JSON(http.StatusOK, b.View(page, size))
}

func (h *BatchHandler) AddRecord(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBindError(c, err)
		return
	}
	row, err := b.AddJSON(raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "record": row})
}

func (h *BatchHandler) UpdateRecord(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	id, ok := recordID(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBindError(c, err)
		return
	}
	row, err := b.UpdateJSON(id, raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": row})
}

func (h *BatchHandler) RemoveRecord(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := b.Remove(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.View(0, 0))
}

// ClearRecords empties the batch but keeps it open.
func (h *BatchHandler) ClearRecords(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	if b.Running() {
		respondError(c, utils.NewConflictError("이미 전송이 진행 중입니다."))
		return
	}
	b.Clear()
	c.JSON(http.StatusOK, b.View(1, 0))
}

func (h *BatchHandler) Delete(c *gin.Context) {
	if err := h.batchService.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "배치를 삭제했습니다."})
}

func (h *BatchHandler) destination(c *gin.Context, b service.Batch) (service.Destination, bool) {
	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return service.Destination{}, false
	}
	dest, err := h.batchService.Destination(b, &req, c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, err)
		return service.Destination{}, false
	}
	return dest, true
}

// Submit starts a background upload of every pending row.
func (h *BatchHandler) Submit(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	dest, ok := h.destination(c, b)
	if !ok {
		return
	}
	if err := b.Submit(c.Request.Context(), dest); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "전송을 시작했습니다.", "batchId": b.ID()})
}

func (h *BatchHandler) Retry(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	dest, ok := h.destination(c, b)
	if !ok {
		return
	}
	if err := b.RetryFailed(c.Request.Context(), dest); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "실패 항목 재전송을 시작했습니다.", "batchId": b.ID()})
}

// RetryRecord re-sends one failed row and waits for the result.
func (h *BatchHandler) RetryRecord(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	id, ok := recordID(c)
	if !ok {
		return
	}
	dest, ok := h.destination(c, b)
	if !ok {
		return
	}
	row, err := b.RetryOne(c.Request.Context(), dest, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": row})
}

func (h *BatchHandler) Export(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	format, ok := export.ParseFormat(c.Query("format"))
	if !ok {
		respondError(c, utils.NewValidationError("format", c.Query("format")))
		return
	}
	header, rows := b.Export()
	body, err := export.Render(format, header, rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_results.%s"`, b.Kind(), format))
	c.Data(http.StatusOK, format.ContentType(), body)
}

func (h *BatchHandler) Events(c *gin.Context) {
	b, ok := h.batch(c)
	if !ok {
		return
	}
	h.events.Serve(c, b)
}
