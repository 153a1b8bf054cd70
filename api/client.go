package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crcloud/crdeploy/entity"
	"github.com/crcloud/crdeploy/remote"
)

// DefaultBaseURL is the production control-plane endpoint.
const DefaultBaseURL = "https://app.crcloud.app"

const requestTimeout = 30 * time.Second

// Client talks to the hosting platform's REST API for one app. It
// implements both TaskService and CredentialsProvider.
type Client struct {
	baseURL string
	token   string
	handle  string
	env     entity.Env
	http    *http.Client

	// populated on first use by load()
	appID       int
	sftpProd    string
	sftpStaging string
}

// NewClient creates a Client for the app identified by handle. The token
// is sent as-is in the Authorization header on every request.
func NewClient(baseURL, token, handle string, env entity.Env) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		handle:  handle,
		env:     env,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("couldn't reach %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, apiError(resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("unexpected response from %s: %w", endpoint, err)
		}
	}
	return resp.StatusCode, nil
}

// apiError surfaces the platform's own error message when it sent one.
func apiError(status int, raw []byte) error {
	var e struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil {
		if e.Detail != "" {
			return fmt.Errorf("platform API: %s", e.Detail)
		}
		if e.Error != "" {
			return fmt.Errorf("platform API: %s", e.Error)
		}
	}
	return fmt.Errorf("platform API responded with HTTP %d", status)
}

// load fetches the app record once and caches the fields we need.
func (c *Client) load(ctx context.Context) error {
	if c.appID != 0 {
		return nil
	}
	var d struct {
		ID          int    `json:"id"`
		SFTPProd    string `json:"sftp_prod_domain"`
		SFTPStaging string `json:"sftp_staging_domain"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/webapps/"+c.handle+"/", nil, &d); err != nil {
		return fmt.Errorf("couldn't load app %s: %w", c.handle, err)
	}
	c.appID = d.ID
	c.sftpProd = d.SFTPProd
	c.sftpStaging = d.SFTPStaging
	return nil
}

type taskRequest struct {
	Webapp      int            `json:"webapp"`
	Env         string         `json:"env"`
	TaskType    string         `json:"task_type"`
	QueryParams map[string]any `json:"query_params,omitempty"`
}

type taskResponse struct {
	ID           int            `json:"id"`
	Status       string         `json:"status"`
	ReturnedData map[string]any `json:"returned_data"`
}

func (c *Client) queueTask(ctx context.Context, taskType string, params map[string]any) (taskResponse, error) {
	var d taskResponse
	if err := c.load(ctx); err != nil {
		return d, err
	}
	req := taskRequest{Webapp: c.appID, Env: c.env.String(), TaskType: taskType, QueryParams: params}
	if _, err := c.do(ctx, http.MethodPost, "/api/tasks/", req, &d); err != nil {
		return d, fmt.Errorf("couldn't queue %s task: %w", taskType, err)
	}
	return d, nil
}

// QueueDeploy asks the platform to deploy the app and returns the task id.
func (c *Client) QueueDeploy(ctx context.Context) (int, error) {
	d, err := c.queueTask(ctx, "init", nil)
	return d.ID, err
}

// QueueRestart asks the platform to restart the app and returns the task id.
func (c *Client) QueueRestart(ctx context.Context) (int, error) {
	d, err := c.queueTask(ctx, "restart", nil)
	return d.ID, err
}

// GetTask returns the current status of a task.
func (c *Client) GetTask(ctx context.Context, taskID int) (TaskStatus, error) {
	var d taskResponse
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d/", taskID), nil, &d); err != nil {
		return StatusQueued, fmt.Errorf("couldn't query task %d: %w", taskID, err)
	}
	return parseStatus(d.Status), nil
}

func parseStatus(s string) TaskStatus {
	switch s {
	case "running":
		return StatusRunning
	case "completed":
		return StatusCompleted
	case "error":
		return StatusError
	default:
		return StatusQueued
	}
}

// GetLogs returns deployment log lines newer than since. The platform
// serves logs through a short-lived task of its own.
func (c *Client) GetLogs(ctx context.Context, since time.Time) ([]LogLine, error) {
	params := map[string]any{"since": since.Unix()}
	if since.IsZero() {
		params["since"] = 0
	}
	d, err := c.queueTask(ctx, "getlog", params)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(d.ReturnedData["logs"])
	if err != nil {
		return nil, err
	}
	var entries []struct {
		Log      string `json:"log"`
		Datetime int64  `json:"datetime"`
		Source   string `json:"source"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unexpected log payload: %w", err)
	}
	lines := make([]LogLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, LogLine{
			Text:      e.Log,
			Timestamp: time.Unix(e.Datetime, 0),
			Stream:    e.Source,
		})
	}
	return lines, nil
}

// SFTPCredentials rotates and returns the app's SFTP login for the
// client's environment. The previous password stops working immediately.
func (c *Client) SFTPCredentials(ctx context.Context) (remote.Credentials, error) {
	d, err := c.queueTask(ctx, "resetpassword", nil)
	if err != nil {
		return remote.Credentials{}, err
	}
	password, _ := d.ReturnedData["password"].(string)
	if password == "" {
		if msg, ok := d.ReturnedData["error"].(string); ok && msg != "" {
			return remote.Credentials{}, fmt.Errorf("host error: %s", msg)
		}
		return remote.Credentials{}, fmt.Errorf("SFTP password not available for %s", c.handle)
	}
	host := c.sftpProd
	if c.env == entity.EnvStaging {
		host = c.sftpStaging
	}
	return remote.Credentials{
		Host:     host,
		Port:     22,
		User:     c.handle,
		Password: password,
	}, nil
}
