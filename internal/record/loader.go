// Package record implements the retrieval state machine a view binds to:
// cache lookup, cancellable fetch, override merge, and retry-by-version.
package record

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/victorxys/ExamBank-sub004/internal/cache"
	"github.com/victorxys/ExamBank-sub004/internal/fetch"
	"github.com/victorxys/ExamBank-sub004/internal/i18n"
	"github.com/victorxys/ExamBank-sub004/internal/model"
)

// State is the loader's observable phase.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by Wait after the loader has been torn down without
// settling.
var ErrClosed = errors.New("record loader is closed")

// Params identifies one exam record. ExamTime is the raw caller-supplied
// timestamp; normalization happens inside the fetcher.
type Params struct {
	ExamID    string
	SubjectID string
	ExamTime  string
}

// Snapshot is an immutable view of the loader's state. Message is the
// user-facing text for StateError; Err carries the underlying cause for
// callers that need to classify the failure.
type Snapshot struct {
	State   State
	Record  *model.ExamRecord
	Message string
	Err     error
	Version int
}

// Fetcher retrieves one exam record. Implemented by fetch.Client.
type Fetcher interface {
	FetchRecord(ctx context.Context, examID, subjectID, rawExamTime string) (*model.ExamRecord, error)
}

// Loader sequences cache lookup, fetch, and override merge for one view
// instance. At most one retrieval is in flight; starting a new one cancels
// its predecessor, and a response from a superseded retrieval never mutates
// state.
type Loader struct {
	fetcher Fetcher
	cache   *cache.Cache

	mu        sync.Mutex
	params    Params
	overrides model.Overrides
	version   int
	gen       int
	cancel    context.CancelFunc
	snap      Snapshot
	done      chan struct{}
	settled   bool
	closed    bool
	onChange  func(Snapshot)
}

// NewLoader creates an idle loader.
func NewLoader(fetcher Fetcher, c *cache.Cache) *Loader {
	return &Loader{
		fetcher: fetcher,
		cache:   c,
		snap:    Snapshot{State: StateIdle},
		done:    make(chan struct{}),
	}
}

// OnChange registers a callback invoked after every state transition. The
// callback runs without the loader's lock held.
func (l *Loader) OnChange(fn func(Snapshot)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Load (re)enters Loading with the given identifiers and overrides. ctx is
// the base for the retrieval's cancellation scope and should carry the
// localizer for user-facing messages.
func (l *Loader) Load(ctx context.Context, p Params, ov model.Overrides) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.params = p
	l.overrides = ov
	notify := l.startLocked(ctx)
	l.mu.Unlock()
	notify()
}

// Retry bumps the version counter and re-enters Loading with unchanged
// identifiers. The cache entry is left in place; retry exists to recover from
// a prior network failure, not to invalidate cached data.
func (l *Loader) Retry(ctx context.Context) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.version++
	notify := l.startLocked(ctx)
	l.mu.Unlock()
	notify()
}

// Close cancels any in-flight retrieval and freezes the loader; no state
// transition can happen afterwards, even from a late-arriving response.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if !l.settled {
		close(l.done)
	}
	l.mu.Unlock()
}

// Snapshot returns the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

// Wait blocks until the current retrieval settles in Success or Error, the
// loader is closed, or ctx is done.
func (l *Loader) Wait(ctx context.Context) (Snapshot, error) {
	for {
		l.mu.Lock()
		snap, done, closed := l.snap, l.done, l.closed
		l.mu.Unlock()
		if snap.State == StateSuccess || snap.State == StateError {
			return snap, nil
		}
		if closed {
			return snap, ErrClosed
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-done:
		}
	}
}

// startLocked begins a new retrieval generation. It returns the notification
// func to run after the lock is released.
func (l *Loader) startLocked(ctx context.Context) func() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
	gen := l.gen
	if !l.settled {
		// Wake waiters latched onto the superseded entry so they re-check.
		close(l.done)
	}
	l.done = make(chan struct{})
	l.settled = false
	l.snap = Snapshot{State: StateLoading, Version: l.version}

	p, ov := l.params, l.overrides
	if p.ExamID == "" || p.SubjectID == "" || p.ExamTime == "" {
		return l.settleLocked(gen, Snapshot{
			State:   StateError,
			Message: i18n.T(ctx, "MissingRequiredIDs"),
			Err:     fetch.ErrMissingParams,
			Version: l.version,
		})
	}

	key := cache.Key(p.ExamID, p.SubjectID, p.ExamTime)
	if rec, ok := l.cache.GetRecord(key); ok {
		slog.Debug("exam record served from session cache", "key", key)
		merged := rec.WithOverrides(ov)
		return l.settleLocked(gen, Snapshot{State: StateSuccess, Record: &merged, Version: l.version})
	}

	fctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	notify := l.notifyLocked()
	// Launch the fetch only after the Loading notification has run, so
	// observers never see Success before Loading.
	return func() {
		notify()
		go l.runFetch(fctx, gen, key, p, ov)
	}
}

func (l *Loader) runFetch(ctx context.Context, gen int, key string, p Params, ov model.Overrides) {
	rec, err := l.fetcher.FetchRecord(ctx, p.ExamID, p.SubjectID, p.ExamTime)

	l.mu.Lock()
	if gen != l.gen || l.closed {
		l.mu.Unlock()
		return
	}

	var notify func()
	switch {
	case err == nil:
		// The cache holds the pre-merge record; overrides never reach it.
		l.cache.SetRecord(key, rec)
		merged := rec.WithOverrides(ov)
		notify = l.settleLocked(gen, Snapshot{State: StateSuccess, Record: &merged, Version: l.version})
	case errors.Is(err, context.Canceled):
		// Superseded retrieval; the loader has already moved on.
		l.mu.Unlock()
		return
	default:
		notify = l.settleLocked(gen, Snapshot{
			State:   StateError,
			Message: errorMessage(ctx, err),
			Err:     err,
			Version: l.version,
		})
	}
	l.mu.Unlock()
	notify()
}

func (l *Loader) settleLocked(gen int, snap Snapshot) func() {
	if gen != l.gen || l.closed {
		return func() {}
	}
	l.snap = snap
	l.settled = true
	l.cancel = nil
	close(l.done)
	return l.notifyLocked()
}

func (l *Loader) notifyLocked() func() {
	fn, snap := l.onChange, l.snap
	if fn == nil {
		return func() {}
	}
	return func() { fn(snap) }
}

// errorMessage maps a fetch failure to user-facing text: the server message
// when one was supplied, otherwise a localized generic fallback.
func errorMessage(ctx context.Context, err error) string {
	var remote *fetch.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	if errors.Is(err, fetch.ErrMissingParams) {
		return i18n.T(ctx, "MissingRequiredIDs")
	}
	return i18n.T(ctx, "FetchRecordFailed")
}
