package genvr

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/genvr-mcp/internal/common"
	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/writers"
)

// recordingWriter keeps every log event written through it.
type recordingWriter struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
func (w *recordingWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w *recordingWriter) GetFilePath() string                   { return "" }
func (w *recordingWriter) Close() error                          { return nil }

func (w *recordingWriter) count(msg string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Count(w.buf.String(), msg)
}

// recordingTimer fires immediately and remembers every requested delay.
type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingTimer) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (r *recordingTimer) total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum time.Duration
	for _, d := range r.delays {
		sum += d
	}
	return sum
}

// fakeJobClient replays a fixed status sequence; the last entry repeats.
type fakeJobClient struct {
	statuses    []TaskStatus
	statusErr   error
	result      json.RawMessage
	statusCalls int
	fetchCalls  int
}

func (f *fakeJobClient) Status(_ context.Context, _, _, _ string, _ Credentials) (TaskStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return TaskStatus{}, f.statusErr
	}
	i := f.statusCalls - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

func (f *fakeJobClient) FetchResult(_ context.Context, _, _, _ string, _ Credentials) (json.RawMessage, error) {
	f.fetchCalls++
	return f.result, nil
}

func newTestPoller(client JobClient, timer *recordingTimer) *Poller {
	return NewPoller(client, DefaultPollerConfig(), common.NewSilentLogger(), WithTimer(timer))
}

func TestPoller_PendingThenCompleted(t *testing.T) {
	client := &fakeJobClient{
		statuses: []TaskStatus{{Status: StatusPending}, {Status: StatusPending}, {Status: StatusCompleted}},
		result:   json.RawMessage(`{"url":"https://cdn.example/out.png"}`),
	}
	timer := &recordingTimer{}

	result, err := newTestPoller(client, timer).Await(context.Background(), "task-1", "imagegen", "flux_dev", Credentials{UserID: "u", APIKey: "k"})
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if string(result) != `{"url":"https://cdn.example/out.png"}` {
		t.Errorf("unexpected result %s", result)
	}
	if client.statusCalls != 3 {
		t.Errorf("expected 3 status checks, got %d", client.statusCalls)
	}
	if client.fetchCalls != 1 {
		t.Errorf("expected exactly one fetch, got %d", client.fetchCalls)
	}
	if len(timer.delays) != 2 || timer.delays[0] != 2*time.Second || timer.delays[1] != 3*time.Second {
		t.Errorf("expected delays [2s 3s], got %v", timer.delays)
	}
	if timer.total() != 5*time.Second {
		t.Errorf("expected total delay 5s, got %v", timer.total())
	}
}

func TestPoller_FailedImmediately(t *testing.T) {
	client := &fakeJobClient{statuses: []TaskStatus{{Status: StatusFailed, Error: "nsfw content"}}}
	timer := &recordingTimer{}

	_, err := newTestPoller(client, timer).Await(context.Background(), "task-2", "imagegen", "sdxl", Credentials{})

	var failed *TaskFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected TaskFailedError, got %v", err)
	}
	if failed.Detail != "nsfw content" || failed.TaskID != "task-2" {
		t.Errorf("unexpected failure %+v", failed)
	}
	if len(timer.delays) != 0 {
		t.Errorf("expected no sleep, got %v", timer.delays)
	}
	if client.statusCalls != 1 || client.fetchCalls != 0 {
		t.Errorf("expected one check and no fetch, got %d/%d", client.statusCalls, client.fetchCalls)
	}
}

func TestPoller_FailedWithoutDetail(t *testing.T) {
	client := &fakeJobClient{statuses: []TaskStatus{{Status: StatusFailed}}}
	_, err := newTestPoller(client, &recordingTimer{}).Await(context.Background(), "task-3", "a", "b", Credentials{})
	if err == nil || err.Error() != "task task-3 failed" {
		t.Errorf("expected generic failure message, got %v", err)
	}
}

func TestPoller_TimesOut(t *testing.T) {
	client := &fakeJobClient{statuses: []TaskStatus{{Status: StatusPending}}}
	timer := &recordingTimer{}

	_, err := newTestPoller(client, timer).Await(context.Background(), "task-4", "videogen", "kling", Credentials{})

	if !errors.Is(err, ErrTaskTimedOut) {
		t.Fatalf("expected ErrTaskTimedOut, got %v", err)
	}
	var timedOut *TaskTimedOutError
	if !errors.As(err, &timedOut) || timedOut.Attempts != 60 {
		t.Errorf("expected 60 attempts recorded, got %v", err)
	}
	if client.statusCalls != 60 {
		t.Errorf("expected 60 status checks, got %d", client.statusCalls)
	}
	if client.fetchCalls != 0 {
		t.Errorf("expected no fetch, got %d", client.fetchCalls)
	}
	if len(timer.delays) != 59 {
		t.Errorf("expected 59 sleeps between 60 checks, got %d", len(timer.delays))
	}
	for i, d := range timer.delays {
		if d > 10*time.Second {
			t.Errorf("delay %d = %v exceeds cap", i, d)
		}
	}
	if timer.delays[len(timer.delays)-1] != 10*time.Second {
		t.Errorf("expected late delays to be capped at 10s, got %v", timer.delays[len(timer.delays)-1])
	}
}

func TestPoller_UnknownStatusIsPending(t *testing.T) {
	client := &fakeJobClient{
		statuses: []TaskStatus{{Status: ""}, {Status: "processing"}, {Status: StatusCompleted}},
		result:   json.RawMessage(`"done"`),
	}
	timer := &recordingTimer{}

	if _, err := newTestPoller(client, timer).Await(context.Background(), "t", "a", "b", Credentials{}); err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if client.statusCalls != 3 || client.fetchCalls != 1 {
		t.Errorf("expected 3 checks and 1 fetch, got %d/%d", client.statusCalls, client.fetchCalls)
	}
}

func TestPoller_TransportErrorPropagates(t *testing.T) {
	remoteErr := &RemoteRequestError{Op: OpStatus, StatusCode: 502, Body: "bad gateway"}
	client := &fakeJobClient{statusErr: remoteErr}
	timer := &recordingTimer{}

	_, err := newTestPoller(client, timer).Await(context.Background(), "t", "a", "b", Credentials{})

	var rre *RemoteRequestError
	if !errors.As(err, &rre) || rre.StatusCode != 502 {
		t.Fatalf("expected RemoteRequestError 502, got %v", err)
	}
	if client.statusCalls != 1 {
		t.Errorf("transport error must not be retried, got %d checks", client.statusCalls)
	}
	if len(timer.delays) != 0 {
		t.Errorf("expected no sleep, got %v", timer.delays)
	}
}

func TestPoller_CancelledContext(t *testing.T) {
	client := &fakeJobClient{statuses: []TaskStatus{{Status: StatusPending}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPoller(client, &recordingTimer{}).Await(ctx, "t", "a", "b", Credentials{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if client.fetchCalls != 0 {
		t.Error("no fetch expected after cancellation")
	}
}

func TestPollerConfig_Delay(t *testing.T) {
	cfg := DefaultPollerConfig()
	want := []time.Duration{2 * time.Second, 3 * time.Second, 4500 * time.Millisecond, 6750 * time.Millisecond, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := cfg.Delay(i); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i, got, w)
		}
	}
	if got := cfg.Delay(10000); got != 10*time.Second {
		t.Errorf("huge attempt index should cap, got %v", got)
	}
}

func TestNewPoller_AppliesDefaults(t *testing.T) {
	p := NewPoller(&fakeJobClient{}, PollerConfig{}, common.NewSilentLogger())
	if p.Config() != DefaultPollerConfig() {
		t.Errorf("expected defaults, got %+v", p.Config())
	}
}

func TestPoller_PendingLoggedOnlyBeforeAnotherCheck(t *testing.T) {
	rec := &recordingWriter{}
	logger := &common.Logger{ILogger: arbor.NewLogger().WithWriters([]writers.IWriter{rec}).WithLevelFromString("debug")}
	client := &fakeJobClient{statuses: []TaskStatus{{Status: StatusPending}}}

	p := NewPoller(client, PollerConfig{MaxAttempts: 3}, logger, WithTimer(&recordingTimer{}))
	_, err := p.Await(context.Background(), "task-log", "imagegen", "sdxl", Credentials{UserID: "u", APIKey: "k"})
	if !errors.Is(err, ErrTaskTimedOut) {
		t.Fatalf("expected timeout, got %v", err)
	}

	if got := rec.count("task not finished"); got != 2 {
		t.Errorf("expected 2 pending log lines for 3 checks, got %d", got)
	}
	if got := rec.count("task polling timed out"); got != 1 {
		t.Errorf("expected 1 timeout log line, got %d", got)
	}
}

func TestTask_Terminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusPending, false},
		{"processing", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := (Task{Status: tt.status}).Terminal(); got != tt.want {
			t.Errorf("Task{Status: %q}.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
