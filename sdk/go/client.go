package caseflowsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal CaseFlow HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Case represents the API case model (partial).
type Case struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	TriageScore int      `json:"triage_score"`
	Flags       []string `json:"flags"`
	AssignedTo  string   `json:"assigned_to,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type caseEnvelope struct {
	Case Case `json:"case"`
}

// TriagePreview is the scored outcome for a set of answers.
type TriagePreview struct {
	Score             int      `json:"score"`
	Priority          string   `json:"priority"`
	ResponseTimeframe string   `json:"response_timeframe"`
	Flags             []string `json:"flags"`
}

// ValidationResult reports per-field intake errors.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Event represents a log entry.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts"`
	Type    string `json:"type"`
	CaseID  string `json:"case_id,omitempty"`
	Actor   string `json:"actor"`
	Payload string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// SubmitIntake validates answers and creates a case.
func (c *Client) SubmitIntake(ctx context.Context, answers map[string]any) (Case, error) {
	body := map[string]any{"answers": answers}
	var resp caseEnvelope
	err := c.do(ctx, http.MethodPost, "intake", body, &resp)
	return resp.Case, err
}

// ValidateIntake checks answers without creating a case. An empty section
// validates the whole form.
func (c *Client) ValidateIntake(ctx context.Context, section string, answers map[string]any) (ValidationResult, error) {
	body := map[string]any{"section": section, "answers": answers}
	var resp ValidationResult
	err := c.do(ctx, http.MethodPost, "intake/validate", body, &resp)
	return resp, err
}

// PreviewTriage scores answers without creating a case.
func (c *Client) PreviewTriage(ctx context.Context, answers map[string]any) (TriagePreview, error) {
	body := map[string]any{"answers": answers}
	var resp TriagePreview
	err := c.do(ctx, http.MethodPost, "intake/triage", body, &resp)
	return resp, err
}

// GetCase fetches a case by id.
func (c *Client) GetCase(ctx context.Context, id string) (Case, error) {
	var resp caseEnvelope
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("cases/%s", url.PathEscape(id)), nil, &resp)
	return resp.Case, err
}

// ListCases returns cases matching the optional status filter.
func (c *Client) ListCases(ctx context.Context, status string) ([]Case, error) {
	endpoint := "cases"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp struct {
		Cases []Case `json:"cases"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Cases, err
}

// UpdateStatus moves a case to the given status.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) (Case, error) {
	body := map[string]any{"status": status}
	var resp caseEnvelope
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("cases/%s/status", url.PathEscape(id)), body, &resp)
	return resp.Case, err
}

// Assign puts a case in a staff member's hands.
func (c *Client) Assign(ctx context.Context, id, assignee string) (Case, error) {
	body := map[string]any{"assigned_to": assignee}
	var resp caseEnvelope
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("cases/%s/assign", url.PathEscape(id)), body, &resp)
	return resp.Case, err
}

// AddNote appends a note to a case.
func (c *Client) AddNote(ctx context.Context, id, content string) (Case, error) {
	body := map[string]any{"content": content}
	var resp caseEnvelope
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("cases/%s/notes", url.PathEscape(id)), body, &resp)
	return resp.Case, err
}

// CloseCase closes a case with an outcome.
func (c *Client) CloseCase(ctx context.Context, id, outcome, details string) (Case, error) {
	body := map[string]any{"outcome": outcome, "details": details}
	var resp caseEnvelope
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("cases/%s/close", url.PathEscape(id)), body, &resp)
	return resp.Case, err
}

// ListEvents tails the audit log.
func (c *Client) ListEvents(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "events"
	if limit > 0 {
		endpoint += fmt.Sprintf("?limit=%d", limit)
	}
	var resp struct {
		Events []Event `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Events, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/api/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
