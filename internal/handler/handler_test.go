package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/victorxys/ExamBank-sub004/internal/cache"
	"github.com/victorxys/ExamBank-sub004/internal/fetch"
	"github.com/victorxys/ExamBank-sub004/internal/i18n"
	"github.com/victorxys/ExamBank-sub004/internal/media"
	"github.com/victorxys/ExamBank-sub004/internal/model"
)

type stubFetcher struct {
	calls atomic.Int32
	rec   *model.ExamRecord
	err   error
}

func (s *stubFetcher) FetchRecord(ctx context.Context, examID, subjectID, rawExamTime string) (*model.ExamRecord, error) {
	if examID == "" || subjectID == "" || rawExamTime == "" {
		return nil, fetch.ErrMissingParams
	}
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	rec := *s.rec
	return &rec, nil
}

func newTestServer(t *testing.T, f *stubFetcher, videos *media.Resolver) *httptest.Server {
	t.Helper()
	if err := i18n.Init("zh"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	h := New(f, cache.New(cache.NewMemStore()), videos)
	r := chi.NewRouter()
	r.Use(i18n.Middleware("zh"))
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHandleRecord(t *testing.T) {
	f := &stubFetcher{rec: &model.ExamRecord{
		ExamTitle:     "Midterm",
		AttemptNumber: 1,
		TotalScore:    75,
		AccuracyRate:  0.5,
		Questions: []model.Question{
			{ID: 1, QuestionType: model.QuestionSingleChoice, IsCorrect: false},
		},
	}}
	srv := newTestServer(t, f, nil)

	var got recordResponse
	status := getJSON(t, srv.URL+"/records/e1/s1?exam_time=2024-05-01+10:00:00&attempt_number=3", &got)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if got.Record.ExamTitle != "Midterm" {
		t.Errorf("ExamTitle = %q", got.Record.ExamTitle)
	}
	// Query override wins.
	if got.Record.AttemptNumber != 3 {
		t.Errorf("AttemptNumber = %d, want 3", got.Record.AttemptNumber)
	}
	if got.ScoreClass != "pass" || got.AccuracyClass != "fail" {
		t.Errorf("classes = %q/%q", got.ScoreClass, got.AccuracyClass)
	}
	if len(got.Sections) != 1 || got.Sections[0].Heading != "单选题" {
		t.Errorf("sections = %+v", got.Sections)
	}

	// Second identical request is served from the shared session cache.
	if status := getJSON(t, srv.URL+"/records/e1/s1?exam_time=2024-05-01+10:00:00", nil); status != http.StatusOK {
		t.Fatalf("second request status = %d", status)
	}
	if f.calls.Load() != 1 {
		t.Errorf("expected 1 upstream fetch, saw %d", f.calls.Load())
	}
}

func TestHandleRecordMissingExamTime(t *testing.T) {
	f := &stubFetcher{rec: &model.ExamRecord{AttemptNumber: 1}}
	srv := newTestServer(t, f, nil)

	var got map[string]string
	status := getJSON(t, srv.URL+"/records/e1/s1", &got)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if got["error"] != "缺少必要的ID信息" {
		t.Errorf("error = %q", got["error"])
	}
	if f.calls.Load() != 0 {
		t.Errorf("missing exam_time must not fetch, saw %d calls", f.calls.Load())
	}
}

func TestHandleRecordRemoteFailure(t *testing.T) {
	f := &stubFetcher{err: &fetch.RemoteError{StatusCode: http.StatusNotFound, Message: "记录不存在"}}
	srv := newTestServer(t, f, nil)

	var got map[string]string
	status := getJSON(t, srv.URL+"/records/e1/s1?exam_time=t", &got)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if got["error"] != "记录不存在" {
		t.Errorf("error = %q", got["error"])
	}
}

func TestHandleRecordBadOverride(t *testing.T) {
	f := &stubFetcher{rec: &model.ExamRecord{AttemptNumber: 1}}
	srv := newTestServer(t, f, nil)

	status := getJSON(t, srv.URL+"/records/e1/s1?exam_time=t&attempt_number=abc", nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestHandleVideoURL(t *testing.T) {
	f := &stubFetcher{rec: &model.ExamRecord{AttemptNumber: 1}}
	srv := newTestServer(t, f, media.NewResolver("https://proxy.example.com/play"))

	var got map[string]string
	status := getJSON(t, srv.URL+"/video-url?src=https%3A%2F%2Fstorage.example.com%2Fv%2Fa.mp4", &got)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if got["url"] != "https://proxy.example.com/play?key=v%2Fa.mp4" {
		t.Errorf("url = %q", got["url"])
	}

	if status := getJSON(t, srv.URL+"/video-url", nil); status != http.StatusBadRequest {
		t.Errorf("missing src status = %d, want 400", status)
	}
}

func TestHandleVideoURLWithoutResolver(t *testing.T) {
	f := &stubFetcher{rec: &model.ExamRecord{AttemptNumber: 1}}
	srv := newTestServer(t, f, nil)

	if status := getJSON(t, srv.URL+"/video-url?src=x", nil); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}
