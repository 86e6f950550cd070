package hubclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/tracker"
)

func TestCreateUser_SendsTargetAndToken(t *testing.T) {
	var gotAuth, gotPath string
	var got model.CreateUserRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"message":"사용자가 생성되었습니다."}`)
	}))
	defer srv.Close()

	c := New(Options{HubURL: srv.URL + "/", TargetURL: "https://qp.example.com", Token: "tok"})
	res, err := c.CreateUser(context.Background(), model.User{Email: "a@b.com", LoginID: "a", Name: "A", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "/api/users", gotPath)
	assert.Equal(t, "tok", gotAuth)
	assert.Equal(t, "https://qp.example.com", got.TargetURL)
	assert.Equal(t, "pw", got.Password)
}

func TestCreateServer_FailureCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/servers", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"success":false,"message":"이미 존재합니다."}`)
	}))
	defer srv.Close()

	res, err := New(Options{HubURL: srv.URL}).CreateServer(context.Background(), model.Server{Name: "s", Host: "h", SSHPort: 22, OSType: "Linux"})
	require.NoError(t, err)
	out := Outcome(res, err)
	assert.False(t, out.Success)
	assert.Equal(t, http.StatusConflict, out.Status)
	assert.Equal(t, "이미 존재합니다.", out.Message)
}

func TestCreateDatabase_ReshapesClusters(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/databases", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	db := model.Database{
		Name: "prod", DatabaseType: "MySQL", UserName: "root", Password: "pw",
		Clusters: []model.Cluster{{Host: "h1", Port: 3306, ClusterType: "Primary"}},
	}
	res, err := New(Options{HubURL: srv.URL, TargetURL: "https://qp"}).CreateDatabase(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, res.Success)
	clusters := got["clusters"].([]any)
	require.Len(t, clusters, 1)
	assert.Equal(t, "h1", clusters[0].(map[string]any)["host"])
	assert.NotNil(t, got["connectionAccount"])
}

func TestPost_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "bad gateway")
	}))
	defer srv.Close()

	res, err := New(Options{HubURL: srv.URL}).CreateUser(context.Background(), model.User{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Request failed with status code 502", res.Message)
}

func TestUnreachableHub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Options{HubURL: url, Timeout: time.Second})
	res, err := c.CreateUser(context.Background(), model.User{})
	assert.Nil(t, res)
	require.Error(t, err)
	out := Outcome(res, err)
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Message)

	_, err = c.Ping(context.Background())
	assert.Error(t, err)
}

func TestUserSubmitter_FillsPassword(t *testing.T) {
	var got model.CreateUserRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	sub := New(Options{HubURL: srv.URL}).UserSubmitter("initial")
	out := sub.Submit(context.Background(), tracker.Row[model.User]{ID: uuid.New(), Record: model.User{Email: "a@b.com"}})
	assert.True(t, out.Success)
	assert.Equal(t, "initial", got.Password)

	sub.Submit(context.Background(), tracker.Row[model.User]{ID: uuid.New(), Record: model.User{Email: "b@b.com", Password: "own"}})
	assert.Equal(t, "own", got.Password)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard", r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.DashboardResponse{Success: true, Message: "HUB 시스템이 실행 중입니다.", Timestamp: time.Now()})
	}))
	defer srv.Close()

	res, err := New(Options{HubURL: srv.URL}).Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "HUB 시스템이 실행 중입니다.", res.Message)
}
