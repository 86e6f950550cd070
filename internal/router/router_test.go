package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qp-hub-backend/internal/handler"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/service"
	"qp-hub-backend/internal/tracker"
	"qp-hub-backend/internal/upstream"
)

// fakePlatform plays the external API: it rejects any body containing "dup".
type fakePlatform struct {
	mu    sync.Mutex
	paths []string
	auths []string
}

func (p *fakePlatform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	p.mu.Lock()
	p.paths = append(p.paths, r.URL.Path)
	p.auths = append(p.auths, r.Header.Get("Authorization"))
	p.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if bytes.Contains(body, []byte("dup")) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"이미 존재합니다."}`))
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"uuid":"u-1"}`))
}

type env struct {
	engine   *gin.Engine
	platform *fakePlatform
	target   string
	batches  *service.BatchService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	platform := &fakePlatform{}
	srv := httptest.NewServer(platform)
	t.Cleanup(srv.Close)

	log := logger.NewNop()
	client := upstream.NewClient(upstream.Config{Timeout: 2 * time.Second}, log, nil)
	users := service.NewUserService(client, 1, log)
	servers := service.NewServerService(client, log)
	dbs := service.NewDatabaseService(client, log)
	batches := service.NewBatchService(users, servers, dbs, service.BatchConfig{Concurrency: 1, PageSize: 20}, nil, nil, log)

	r := gin.New()
	RegisterRoutes(r, Handlers{
		User:      handler.NewUserHandler(users),
		Server:    handler.NewServerHandler(servers),
		Database:  handler.NewDatabaseHandler(dbs),
		Dashboard: handler.NewDashboardHandler(),
		Batch:     handler.NewBatchHandler(batches, handler.NewEventStream([]string{"*"}, log)),
	}, 1<<20)
	return &env{engine: r, platform: platform, target: srv.URL, batches: batches}
}

func (e *env) do(method, path string, body io.Reader, contentType, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *env) postJSON(path string, v any, auth string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(v)
	return e.do(http.MethodPost, path, bytes.NewReader(b), "application/json", auth)
}

func multipartBody(t *testing.T, fields map[string]string, file string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != "" {
		fw, err := mw.CreateFormFile("file", "data.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(file))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthDashboardAndNotFound(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/health", nil, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/dashboard", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HUB 시스템이 실행 중입니다.", decode(t, w)["message"])

	w = e.do(http.MethodGet, "/api/nope", nil, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "요청한 리소스를 찾을 수 없습니다.", decode(t, w)["message"])
}

func TestCreateUser_MirrorsUpstreamStatus(t *testing.T) {
	e := newEnv(t)
	req := map[string]string{"email": "a@x.com", "loginId": "a", "name": "A", "password": "pw", "targetUrl": e.target}

	w := e.postJSON("/api/users", req, "token-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])
	assert.Equal(t, []string{upstream.PathUsers}, e.platform.paths)
	assert.Equal(t, []string{"token-1"}, e.platform.auths)

	req["email"] = "dup@x.com"
	w = e.postJSON("/api/users", req, "token-1")
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "이미 존재합니다.", body["message"])
}

func TestCreateUser_Validation(t *testing.T) {
	e := newEnv(t)

	w := e.postJSON("/api/users", map[string]string{"email": "a@x.com"}, "token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.postJSON("/api/users", map[string]string{"email": "a@x.com", "loginId": "a", "name": "A", "password": "pw", "targetUrl": e.target}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "대상 URL과 API Token이 필요합니다.", decode(t, w)["message"])
	assert.Empty(t, e.platform.paths)
}

func TestCreateServer_StringPorts(t *testing.T) {
	e := newEnv(t)
	w := e.postJSON("/api/servers", map[string]any{
		"targetUrl": e.target, "name": "web", "host": "10.0.0.1", "sshPort": "22", "osType": "UBUNTU",
	}, "token")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "서버가 성공적으로 생성되었습니다.", decode(t, w)["message"])
	assert.Equal(t, []string{upstream.PathServers}, e.platform.paths)
}

func TestCreateCluster(t *testing.T) {
	e := newEnv(t)
	w := e.postJSON("/api/databases/clusters", map[string]any{
		"targetUrl": e.target, "clusterGroupUuid": "g-1", "host": "db2", "port": 5432, "type": "Secondary",
	}, "token")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{upstream.ClustersPath("g-1")}, e.platform.paths)
}

func TestUsersBulk(t *testing.T) {
	e := newEnv(t)
	body, ct := multipartBody(t, map[string]string{"targetUrl": e.target},
		"\xef\xbb\xbfemail,loginId,name\na@x.com,a,A\ndup@x.com,b,B\n")

	w := e.do(http.MethodPost, "/api/users/bulk", body, ct, "token")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "1명 성공, 1명 실패", out["message"])
}

func TestUploadServer_RejectsBinary(t *testing.T) {
	e := newEnv(t)
	body, ct := multipartBody(t, map[string]string{"targetUrl": e.target}, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	w := e.do(http.MethodPost, "/api/upload/server", body, ct, "token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = multipartBody(t, map[string]string{"targetUrl": e.target}, "")
	w = e.do(http.MethodPost, "/api/upload/server", body, ct, "token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CSV 파일이 필요합니다.", decode(t, w)["message"])
}

func TestUploadDatabase_Forwards(t *testing.T) {
	e := newEnv(t)
	body, ct := multipartBody(t, map[string]string{"targetUrl": e.target}, "name,databaseType\nprod,PostgreSQL\n")
	w := e.do(http.MethodPost, "/api/upload/database", body, ct, "token")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{upstream.PathDatabase}, e.platform.paths)
}

func TestTemplate(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/templates/servers", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "\xef\xbb\xbfname,host,sshPort,osType"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "servers_template.csv")

	w = e.do(http.MethodGet, "/api/templates/widgets", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchLifecycle(t *testing.T) {
	e := newEnv(t)
	body, ct := multipartBody(t, map[string]string{"kind": "users"},
		"email,loginId,name\na@x.com,a,A\ndup@x.com,b,B\nc@x.com,c,C\n")

	w := e.do(http.MethodPost, "/api/batches", body, ct, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var imported model.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &imported))
	id := imported.Batch.ID
	assert.Equal(t, 3, imported.Added)

	w = e.postJSON("/api/batches/"+id+"/submit", map[string]string{"targetUrl": e.target}, "token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.postJSON("/api/batches/"+id+"/submit", map[string]string{"targetUrl": e.target, "password": "init"}, "token")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	b, err := e.batches.Get(id)
	require.NoError(t, err)
	b.Wait()

	w = e.do(http.MethodGet, "/api/batches/"+id+"?page=1&pageSize=2", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		TotalPages int            `json:"totalPages"`
		Counts     map[string]int `json:"counts"`
		Retryable  int            `json:"retryable"`
		Rows       []struct {
			ID     string `json:"id"`
			Result string `json:"result"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 2, view.TotalPages)
	assert.Equal(t, 2, view.Counts["success"])
	assert.Equal(t, 1, view.Counts["error"])
	assert.Equal(t, 1, view.Retryable)
	require.Len(t, view.Rows, 2)
	failedID := view.Rows[1].ID
	assert.Equal(t, "error", view.Rows[1].Result)

	w = e.postJSON("/api/batches/"+id+"/records/"+view.Rows[0].ID+"/retry", map[string]string{"targetUrl": e.target, "password": "init"}, "token")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPut, "/api/batches/"+id+"/records/"+failedID,
		strings.NewReader(`{"email":"b@x.com","loginId":"b","name":"B"}`), "application/json", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.postJSON("/api/batches/"+id+"/records/"+failedID+"/retry", map[string]string{"targetUrl": e.target, "password": "init"}, "token")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/batches/"+id+"/export?format=csv", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "b@x.com,b,B,성공")

	w = e.do(http.MethodDelete, "/api/batches/"+id+"/records/"+failedID, nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodDelete, "/api/batches/"+id, nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, "/api/batches/"+id, nil, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatch_EmptyAndManualRows(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/api/batches?kind=servers", nil, "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = e.do(http.MethodPost, "/api/batches/"+created.Batch.ID+"/records",
		strings.NewReader(`{"name":"web","host":"1.1.1.1","sshPort":22,"osType":"UBUNTU"}`), "application/json", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/batches/"+created.Batch.ID+"/records", strings.NewReader(`{`), "application/json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodDelete, "/api/batches/"+created.Batch.ID+"/records", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total"])

	w = e.do(http.MethodPost, "/api/batches?kind=widgets", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBodyLimit(t *testing.T) {
	e := newEnv(t)
	big := strings.Repeat("a", 2<<20)
	body, ct := multipartBody(t, map[string]string{"targetUrl": e.target}, "name\n"+big)
	w := e.do(http.MethodPost, "/api/upload/server", body, ct, "token")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestBatchEvents_Websocket(t *testing.T) {
	e := newEnv(t)
	hub := httptest.NewServer(e.engine)
	defer hub.Close()

	w := e.do(http.MethodPost, "/api/batches?kind=users", nil, "", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Batch.ID

	wsURL := "ws" + strings.TrimPrefix(hub.URL, "http") + "/api/batches/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the server subscribes right after the handshake completes
	time.Sleep(100 * time.Millisecond)
	w = e.do(http.MethodPost, "/api/batches/"+id+"/records",
		strings.NewReader(`{"email":"a@x.com","loginId":"a","name":"A"}`), "application/json", "")
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev tracker.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, tracker.EventAdded, ev.Type)
	assert.Equal(t, id, ev.BatchID)
}
