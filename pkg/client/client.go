// Package client is a small Go SDK for the sprintd HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to a sprintd server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the X-API-Key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return &APIError{StatusCode: resp.StatusCode, Code: envelope.Code, Message: envelope.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health returns the server's health payload.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject creates a project with capacity defaults.
func (c *Client) CreateProject(ctx context.Context, name string, defaultCapacityPerDay float64, workingDays string) (*models.Project, error) {
	body := map[string]any{
		"name":                     name,
		"default_capacity_per_day": defaultCapacityPerDay,
		"working_days":             workingDays,
	}
	var out models.Project
	if err := c.doJSON(ctx, http.MethodPost, "/projects", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := c.doJSON(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMember(ctx context.Context, projectID string, m models.Member) (*models.Member, error) {
	var out models.Member
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/members", m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateStatus(ctx context.Context, projectID, name string, position int) (*models.Status, error) {
	body := map[string]any{"name": name, "position": position}
	var out models.Status
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/statuses", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID string, t models.Task) (*models.Task, error) {
	var out models.Task
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/tasks", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SprintDefinition is the create-sprint request body.
type SprintDefinition struct {
	Name      string    `json:"name"`
	Goal      string    `json:"goal"`
	StartedAt time.Time `json:"started_at"`
	EndAt     time.Time `json:"end_at"`
	MemberIDs []string  `json:"member_ids,omitempty"`
}

func (c *Client) CreateSprint(ctx context.Context, projectID string, def SprintDefinition) (*models.Sprint, error) {
	var out models.Sprint
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/sprints", def, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSprints(ctx context.Context, projectID string) ([]models.Sprint, error) {
	var out []models.Sprint
	if err := c.doJSON(ctx, http.MethodGet, "/projects/"+projectID+"/sprints", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SprintDetail is the get-sprint response: the sprint plus its board state.
type SprintDetail struct {
	Sprint         models.Sprint           `json:"sprint"`
	Columns        []models.SprintColumn   `json:"columns"`
	Tasks          []models.SprintTask     `json:"tasks"`
	MemberCapacity []models.MemberCapacity `json:"member_capacity"`
}

func (c *Client) GetSprint(ctx context.Context, projectID, sprintID string) (*SprintDetail, error) {
	var out SprintDetail
	if err := c.doJSON(ctx, http.MethodGet, "/projects/"+projectID+"/sprints/"+sprintID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PublishSprint(ctx context.Context, projectID, sprintID string) (*models.Sprint, error) {
	var out models.Sprint
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/sprints/"+sprintID+"/publish", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteSprint(ctx context.Context, projectID, sprintID string) (*models.Sprint, error) {
	var out models.Sprint
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/sprints/"+sprintID+"/complete", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CloseSprint(ctx context.Context, projectID, sprintID string, finalStatusIDs []string) (*models.CloseResult, error) {
	body := map[string]any{"final_status_ids": finalStatusIDs}
	var out models.CloseResult
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/sprints/"+sprintID+"/close", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddTask(ctx context.Context, projectID, sprintID, taskID, columnID, actorID string, force bool) (*models.Sprint, error) {
	body := map[string]any{"task_id": taskID, "column_id": columnID, "actor_id": actorID, "force": force}
	var out models.Sprint
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/sprints/"+sprintID+"/tasks", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveTask(ctx context.Context, projectID, sprintID, taskID string) (*models.Sprint, error) {
	var out models.Sprint
	if err := c.doJSON(ctx, http.MethodDelete, "/projects/"+projectID+"/sprints/"+sprintID+"/tasks/"+taskID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MoveTask(ctx context.Context, projectID, sprintID, taskID, fromColumn, toColumn string, newSequence int, actorID string) (*models.Sprint, error) {
	body := map[string]any{
		"from_column":  fromColumn,
		"to_column":    toColumn,
		"new_sequence": newSequence,
		"actor_id":     actorID,
	}
	var out models.Sprint
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/sprints/"+sprintID+"/tasks/"+taskID+"/move", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TimeLogEntry is the log-time request body. EntryID is an optional
// idempotency key for safe retries.
type TimeLogEntry struct {
	EntryID     string    `json:"entry_id,omitempty"`
	MemberID    string    `json:"member_id"`
	Description string    `json:"description,omitempty"`
	LoggedHours float64   `json:"logged_hours"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
}

func (c *Client) LogTime(ctx context.Context, projectID, sprintID, taskID string, entry TimeLogEntry) (*models.LogTimeResult, error) {
	var out models.LogTimeResult
	if err := c.doJSON(ctx, http.MethodPost, "/projects/"+projectID+"/sprints/"+sprintID+"/tasks/"+taskID+"/timelogs", entry, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTimeLog(ctx context.Context, projectID, sprintID, logID string) (*models.LogTimeResult, error) {
	var out models.LogTimeResult
	if err := c.doJSON(ctx, http.MethodDelete, "/projects/"+projectID+"/sprints/"+sprintID+"/timelogs/"+logID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Report fetches the persisted report, or a live preview when preview is
// true (finalStatusIDs only apply to previews).
func (c *Client) Report(ctx context.Context, projectID, sprintID string, preview bool, finalStatusIDs []string) (*models.SprintReport, error) {
	path := "/projects/" + projectID + "/sprints/" + sprintID + "/report"
	if preview {
		q := url.Values{"preview": {"1"}}
		if len(finalStatusIDs) > 0 {
			q.Set("final_status_ids", strings.Join(finalStatusIDs, ","))
		}
		path += "?" + q.Encode()
	}
	var out models.SprintReport
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BackfillReports regenerates missing reports for closed sprints.
func (c *Client) BackfillReports(ctx context.Context) (int, error) {
	var out struct {
		Created int `json:"created"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/maintenance/backfill-reports", nil, &out); err != nil {
		return 0, err
	}
	return out.Created, nil
}
