package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/upstream"
	"qp-hub-backend/pkg/utils"
)

func TestIsText(t *testing.T) {
	assert.True(t, isText([]byte("email,loginId,name\na@b.com,a,A\n")))
	assert.True(t, isText([]byte("\xef\xbb\xbfname,host\n웹서버,1.1.1.1\n")))
	assert.True(t, isText([]byte(`{"name":"web"}`)))
	assert.True(t, isText(nil))
	assert.False(t, isText([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))
}

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	return w
}

func TestRespondUpstream(t *testing.T) {
	w := record(func(c *gin.Context) {
		respondUpstream(c, &upstream.Result{Success: true, Status: 201, Message: "성공", Data: json.RawMessage(`{"id":1}`)}, "생성됨", "실패함")
	})
	require.Equal(t, 201, w.Code)
	var ok model.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.Equal(t, "생성됨", ok.Message)
	assert.JSONEq(t, `{"id":1}`, string(ok.Data))

	w = record(func(c *gin.Context) {
		respondUpstream(c, &upstream.Result{Success: false, Status: 403, Details: json.RawMessage(`{"code":"DENIED"}`)}, "", "서버 생성에 실패했습니다.")
	})
	require.Equal(t, 403, w.Code)
	var fail model.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fail))
	assert.False(t, fail.Success)
	assert.Equal(t, "서버 생성에 실패했습니다.", fail.Message)
	assert.JSONEq(t, `{"code":"DENIED"}`, string(fail.Details))

	w = record(func(c *gin.Context) {
		respondUpstream(c, &upstream.Result{Success: false, Error: "connection refused"}, "", "실패함")
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestRespondError(t *testing.T) {
	w := record(func(c *gin.Context) { respondError(c, utils.NewConflictError("busy")) })
	assert.Equal(t, http.StatusConflict, w.Code)

	w = record(func(c *gin.Context) { respondError(c, assert.AnError) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestEventStreamOrigins(t *testing.T) {
	s := NewEventStream([]string{"http://hub.local"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.local")
	assert.False(t, s.upgrader.CheckOrigin(req))
	req.Header.Set("Origin", "http://hub.local")
	assert.True(t, s.upgrader.CheckOrigin(req))

	assert.True(t, NewEventStream([]string{"*"}, nil).upgrader.CheckOrigin(req))
}
