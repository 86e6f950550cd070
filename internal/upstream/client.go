// Package upstream forwards hub requests to {targetUrl}/api/external/v2/...
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/pkg/metrics"
	"qp-hub-backend/internal/pkg/tracing"
)

const (
	PathUsers       = "/api/external/v2/users"
	PathServers     = "/api/external/v2/sac/servers"
	PathConnections = "/api/external/v2/dac/connections"
	PathDatabase    = "/api/external/v2/database"

	DefaultSuccessMessage = "성공"
	UnknownErrorMessage   = "알 수 없는 오류"
)

func ClustersPath(clusterGroupUUID string) string {
	return PathConnections + "/" + clusterGroupUUID + "/clusters"
}

// Result is the normalized outcome of one forwarded call.
type Result struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message"`
	Error   string          `json:"error,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

type Config struct {
	Timeout  time.Duration
	RetryMax int
}

type Client struct {
	httpClient *retryablehttp.Client
	logger     *logger.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

func NewClient(cfg Config, log *logger.Logger, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.Default()
	}
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.RetryMax
	c.HTTPClient.Timeout = cfg.Timeout
	c.Logger = leveledLogger{log.Sugar()}
	c.CheckRetry = transportErrorsOnly
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient: c,
		logger:     log,
		metrics:    m,
		tracer:     tracing.Tracer(),
	}
}

// transportErrorsOnly retries connection failures but never a delivered response,
// so a create is not repeated after the platform has seen it.
func transportErrorsOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil && resp == nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return false, nil
}

// PostJSON marshals body and posts it to targetURL+path.
func (c *Client) PostJSON(ctx context.Context, targetURL, path, authorization string, body any) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshal upstream payload")
	}
	return c.post(ctx, targetURL, path, authorization, "application/json", payload), nil
}

// PostRaw forwards an already-encoded body unchanged.
func (c *Client) PostRaw(ctx context.Context, targetURL, path, authorization, contentType string, body []byte) *Result {
	return c.post(ctx, targetURL, path, authorization, contentType, body)
}

func (c *Client) post(ctx context.Context, targetURL, path, authorization, contentType string, payload []byte) *Result {
	url := strings.TrimRight(targetURL, "/") + path
	endpoint := endpointLabel(path)

	ctx, span := c.tracer.Start(ctx, "upstream.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.endpoint", endpoint),
			attribute.String("http.method", http.MethodPost),
			attribute.String("http.url", url),
		),
	)
	defer span.End()

	c.logger.UpstreamCall(endpoint, url)
	start := time.Now()

	res, status := c.do(ctx, url, authorization, contentType, payload)

	c.metrics.ObserveUpstream(endpoint, status, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", res.Status))
	if !res.Success {
		span.SetStatus(codes.Error, res.Message)
		c.logger.UpstreamFailure(endpoint, status, errors.New(res.Message))
	}
	return res
}

// do returns the result and the raw status (0 when nothing was received).
func (c *Client) do(ctx context.Context, url, authorization, contentType string, payload []byte) (*Result, int) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return failure(http.StatusInternalServerError, nil, err.Error()), 0
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failure(http.StatusInternalServerError, nil, err.Error()), 0
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(resp.StatusCode, nil, errors.Wrap(err, "read upstream body").Error()), resp.StatusCode
	}
	body := asJSON(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fallback := fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
		return failure(resp.StatusCode, body, fallback), resp.StatusCode
	}

	msg := field(body, "message")
	if msg == "" {
		msg = DefaultSuccessMessage
	}
	return &Result{Success: true, Status: resp.StatusCode, Data: body, Message: msg}, resp.StatusCode
}

// failure picks body.message, then body.error, then the fallback text.
func failure(status int, body json.RawMessage, fallback string) *Result {
	msg := field(body, "message")
	if msg == "" {
		msg = field(body, "error")
	}
	if msg == "" {
		msg = fallback
	}
	if msg == "" {
		msg = UnknownErrorMessage
	}
	return &Result{Success: false, Status: status, Message: msg, Error: msg, Details: body}
}

// asJSON keeps JSON bodies as-is and wraps anything else as a JSON string.
func asJSON(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	b, _ := json.Marshal(string(raw))
	return b
}

func field(body json.RawMessage, key string) string {
	if len(body) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	switch v := obj[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func endpointLabel(path string) string {
	switch {
	case path == PathUsers:
		return "users"
	case path == PathServers:
		return "servers"
	case path == PathConnections:
		return "connections"
	case path == PathDatabase:
		return "database"
	case strings.HasPrefix(path, PathConnections+"/"):
		return "clusters"
	}
	return "other"
}
