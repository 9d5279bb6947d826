// Package qbank is a thin client for the question-bank CRUD endpoints. These
// are plain request/response wrappers with no orchestration or caching.
package qbank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/victorxys/ExamBank-sub004/internal/fetch"
)

// Question is a question-bank entry. It is distinct from model.Question,
// which carries per-record answer state.
type Question struct {
	ID           int64  `json:"id,omitempty"`
	SubjectID    string `json:"subject_id"`
	QuestionText string `json:"question_text"`
	QuestionType string `json:"question_type"`
	Explanation  string `json:"explanation,omitempty"`
}

// Client issues question-bank requests against a base URL.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a Client. A nil httpc falls back to http.DefaultClient.
func New(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

// List returns the bank's questions, optionally filtered by subject.
func (c *Client) List(ctx context.Context, subjectID string) ([]Question, error) {
	u := c.baseURL + "/questions"
	if subjectID != "" {
		u += "?subject_id=" + url.QueryEscape(subjectID)
	}
	var out []Question
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds a question and returns it with its server-assigned id.
func (c *Client) Create(ctx context.Context, q Question) (*Question, error) {
	var out Question
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/questions", &q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an existing question.
func (c *Client) Update(ctx context.Context, q Question) error {
	u := fmt.Sprintf("%s/questions/%d", c.baseURL, q.ID)
	return c.do(ctx, http.MethodPut, u, &q, nil)
}

// Delete removes a question by id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	u := fmt.Sprintf("%s/questions/%d", c.baseURL, id)
	return c.do(ctx, http.MethodDelete, u, nil, nil)
}

func (c *Client) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &payload)
		return &fetch.RemoteError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
