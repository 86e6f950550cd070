package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(Config{Timeout: 2 * time.Second}, nil, nil)
}

func TestPostJSON_Success(t *testing.T) {
	var gotAuth, gotPath, gotType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"uuid":"abc"}`))
	}))
	defer srv.Close()

	res, err := newTestClient().PostJSON(context.Background(), srv.URL+"/", PathUsers, "token-123", map[string]string{"email": "a@b.com"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, DefaultSuccessMessage, res.Message)
	assert.JSONEq(t, `{"uuid":"abc"}`, string(res.Data))

	assert.Equal(t, "token-123", gotAuth)
	assert.Equal(t, PathUsers, gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "a@b.com", gotBody["email"])
}

func TestPostJSON_ErrorMessagePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", http.StatusBadRequest, `{"message":"duplicated email","error":"x"}`, "duplicated email"},
		{"error", http.StatusConflict, `{"error":"already exists"}`, "already exists"},
		{"fallback", http.StatusBadGateway, `not json`, "Request failed with status code 502"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			res, err := newTestClient().PostJSON(context.Background(), srv.URL, PathServers, "t", struct{}{})
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.want, res.Message)
			assert.Equal(t, tc.want, res.Error)
			assert.NotEmpty(t, res.Details)
		})
	}
}

func TestPostJSON_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res, err := newTestClient().PostJSON(context.Background(), url, PathUsers, "t", struct{}{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.NotEmpty(t, res.Message)
}

func TestPostRaw_ForwardsBodyUnchanged(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"message":"업로드 완료"}`))
	}))
	defer srv.Close()

	body := []byte("name,host\nweb,1.1.1.1\n")
	res := newTestClient().PostRaw(context.Background(), srv.URL, PathDatabase, "t", "application/json", body)
	assert.True(t, res.Success)
	assert.Equal(t, "업로드 완료", res.Message)
	assert.Equal(t, body, got)
}

func TestClustersPathAndLabels(t *testing.T) {
	assert.Equal(t, "/api/external/v2/dac/connections/u-1/clusters", ClustersPath("u-1"))
	assert.Equal(t, "clusters", endpointLabel(ClustersPath("u-1")))
	assert.Equal(t, "connections", endpointLabel(PathConnections))
	assert.Equal(t, "other", endpointLabel("/x"))
}
