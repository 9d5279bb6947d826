// Package fetch retrieves exam records from the ExamBank API.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/victorxys/ExamBank-sub004/internal/model"
	"github.com/victorxys/ExamBank-sub004/internal/timefmt"
)

// ErrMissingParams is returned when the exam id, subject id, or exam time is
// absent. It is reported before any network activity.
var ErrMissingParams = errors.New("missing required exam identifiers")

// RemoteError is a non-success response from the server, carrying the
// server-supplied message when one was present.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("exam record request failed with status %d", e.StatusCode)
}

// Client issues exam record retrievals against a base URL.
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

// FetchRecord retrieves one exam record. The timestamp is normalized before it
// is sent (see timefmt.Normalize) and every nested question and course gets a
// UniqueID derived from the record's base key, so ids stay stable across
// re-fetches of the same data and disjoint across different records.
//
// Cancelling ctx aborts the in-flight request; the returned error then unwraps
// to context.Canceled and must not be shown to users.
func (c *Client) FetchRecord(ctx context.Context, examID, subjectID, rawExamTime string) (*model.ExamRecord, error) {
	if examID == "" || subjectID == "" || rawExamTime == "" {
		return nil, ErrMissingParams
	}

	normalized := timefmt.Normalize(rawExamTime)
	reqURL := fmt.Sprintf("%s/exam-records/%s/%s?exam_time=%s",
		c.baseURL, url.PathEscape(examID), url.PathEscape(subjectID), url.QueryEscape(normalized))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch exam record: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, remoteError(resp.StatusCode, body)
	}

	var dto recordDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed record payload: %v", err)}
	}
	if err := dto.validate(); err != nil {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	rec := dto.toModel()
	assignIdentity(rec, examID, subjectID, normalized)
	slog.Debug("fetched exam record",
		"exam_id", examID, "subject_id", subjectID, "questions", len(rec.Questions))
	return rec, nil
}

// remoteError extracts the server's error message, if the body carries one.
func remoteError(status int, body []byte) *RemoteError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &RemoteError{StatusCode: status, Message: payload.Error}
	}
	return &RemoteError{StatusCode: status}
}

// assignIdentity computes the record's base key and stamps a UniqueID onto
// every question and course. Entities without a server id fall back to their
// positional index, which keeps ids pairwise distinct within one record.
func assignIdentity(rec *model.ExamRecord, examID, subjectID, normalizedTime string) {
	base := examID + "_" + subjectID + "_" + normalizedTime
	rec.BaseKey = base
	for i := range rec.Questions {
		rec.Questions[i].UniqueID = entityID(base, "q", rec.Questions[i].ID, i)
	}
	for i := range rec.Courses {
		rec.Courses[i].UniqueID = entityID(base, "c", rec.Courses[i].ID, i)
	}
}

func entityID(base, kind string, id int64, idx int) string {
	if id != 0 {
		return fmt.Sprintf("%s_%s_%d", base, kind, id)
	}
	return fmt.Sprintf("%s_%s_i%d", base, kind, idx)
}
