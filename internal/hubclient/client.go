// Package hubclient talks to a running hub proxy the way the web frontend does.
package hubclient

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

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/sequencer"
	"qp-hub-backend/internal/tracker"
)

const DefaultHubURL = "http://localhost:3000"

type Options struct {
	HubURL    string
	TargetURL string
	Token     string
	Timeout   time.Duration
	RetryMax  int
}

type Client struct {
	hubURL    string
	targetURL string
	token     string
	http      *retryablehttp.Client
}

func New(opts Options) *Client {
	if opts.HubURL == "" {
		opts.HubURL = DefaultHubURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	c.HTTPClient.Timeout = opts.Timeout
	c.Logger = nil
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil && resp == nil, nil
	}
	return &Client{
		hubURL:    strings.TrimRight(opts.HubURL, "/"),
		targetURL: opts.TargetURL,
		token:     opts.Token,
		http:      c,
	}
}

// Response is the decoded hub envelope plus the HTTP status it came with.
type Response struct {
	Status int
	model.APIResponse
}

func (c *Client) CreateUser(ctx context.Context, u model.User) (*Response, error) {
	return c.post(ctx, "/api/users", model.CreateUserRequest{
		Email:     u.Email,
		LoginID:   u.LoginID,
		Name:      u.Name,
		Password:  u.Password,
		TargetURL: c.targetURL,
	})
}

func (c *Client) CreateServer(ctx context.Context, s model.Server) (*Response, error) {
	return c.post(ctx, "/api/servers", model.CreateServerRequest{
		TargetURL:  c.targetURL,
		Name:       s.Name,
		Host:       s.Host,
		SSHPort:    model.FlexInt(s.SSHPort),
		OSType:     s.OSType,
		FTPPort:    model.FlexInt(s.FTPPort),
		TelnetPort: model.FlexInt(s.TelnetPort),
		VNCPort:    model.FlexInt(s.VNCPort),
	})
}

func (c *Client) CreateDatabase(ctx context.Context, d model.Database) (*Response, error) {
	return c.post(ctx, "/api/databases", d.ConnectionRequest(c.targetURL))
}

// Ping calls the dashboard liveness endpoint.
func (c *Client) Ping(ctx context.Context) (*model.DashboardResponse, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.hubURL+"/api/dashboard", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build ping request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "ping hub")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("hub answered %d", resp.StatusCode)
	}
	var out model.DashboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode dashboard response")
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.hubURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "post %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	out := &Response{Status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out.APIResponse); err != nil {
			out.Message = fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
		}
	}
	if resp.StatusCode >= 300 {
		out.Success = false
	}
	return out, nil
}

// Outcome converts a hub answer into a row outcome.
func Outcome(res *Response, err error) sequencer.Outcome {
	if err != nil {
		return sequencer.Outcome{Message: err.Error()}
	}
	return sequencer.Outcome{Success: res.Success, Status: res.Status, Message: res.Message}
}

func (c *Client) UserSubmitter(password string) sequencer.Submitter[model.User] {
	return sequencer.SubmitFunc[model.User](func(ctx context.Context, row tracker.Row[model.User]) sequencer.Outcome {
		u := row.Record
		if u.Password == "" {
			u.Password = password
		}
		return Outcome(c.CreateUser(ctx, u))
	})
}

func (c *Client) ServerSubmitter() sequencer.Submitter[model.Server] {
	return sequencer.SubmitFunc[model.Server](func(ctx context.Context, row tracker.Row[model.Server]) sequencer.Outcome {
		return Outcome(c.CreateServer(ctx, row.Record))
	})
}

func (c *Client) DatabaseSubmitter() sequencer.Submitter[model.Database] {
	return sequencer.SubmitFunc[model.Database](func(ctx context.Context, row tracker.Row[model.Database]) sequencer.Outcome {
		return Outcome(c.CreateDatabase(ctx, row.Record))
	})
}
