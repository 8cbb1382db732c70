package genvr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bobmcallan/genvr-mcp/internal/common"
)

type capturedRequest struct {
	Path string
	Auth string
	Body map[string]any
}

// fakeAPI records requests and answers each path with a canned response.
type fakeAPI struct {
	mu        sync.Mutex
	requests  []capturedRequest
	responses map[string]string
	statuses  map[string]int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
	f.mu.Unlock()

	code := http.StatusOK
	if c, ok := f.statuses[r.URL.Path]; ok {
		code = c
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(f.responses[r.URL.Path]))
}

func newFakeAPI(t *testing.T, responses map[string]string) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{responses: responses, statuses: map[string]int{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, NewClient(srv.URL+"/v2/", common.NewSilentLogger(), WithTimeout(5*time.Second))
}

func TestClient_SubmitSendsBodyAndAuth(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"/v2/generate": `{"status":"success","data":{"id":"task-42","status":"pending"}}`,
	})

	id, err := client.Submit(context.Background(), "imagegen", "flux_dev",
		map[string]any{"prompt": "a red fox", "steps": 20},
		Credentials{UserID: "user-7", APIKey: "secret"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id != "task-42" {
		t.Errorf("expected task-42, got %s", id)
	}

	if len(api.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(api.requests))
	}
	req := api.requests[0]
	if req.Path != "/v2/generate" {
		t.Errorf("unexpected path %s", req.Path)
	}
	if req.Auth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", req.Auth)
	}
	if req.Body["category"] != "imagegen" || req.Body["subcategory"] != "flux_dev" {
		t.Errorf("missing category/subcategory in body %v", req.Body)
	}
	if req.Body["uid"] != "user-7" {
		t.Errorf("expected injected uid, got %v", req.Body["uid"])
	}
	if req.Body["prompt"] != "a red fox" || req.Body["steps"] != float64(20) {
		t.Errorf("call parameters not forwarded: %v", req.Body)
	}
}

func TestClient_SubmitFlatResponse(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{"/v2/generate": `{"id":"flat-1"}`})

	id, err := client.Submit(context.Background(), "videogen", "kling", nil, Credentials{UserID: "u", APIKey: "k"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id != "flat-1" {
		t.Errorf("expected flat-1, got %s", id)
	}
}

func TestClient_SubmitWithoutTaskID(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{"/v2/generate": `{"status":"success","data":{}}`})

	_, err := client.Submit(context.Background(), "imagegen", "x", nil, Credentials{})
	var rre *RemoteRequestError
	if !errors.As(err, &rre) || rre.Op != OpGenerate {
		t.Fatalf("expected RemoteRequestError for missing id, got %v", err)
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{"/v2/generate": `{"error":"unknown subcategory"}`})
	api.statuses["/v2/generate"] = http.StatusUnprocessableEntity

	_, err := client.Submit(context.Background(), "imagegen", "does_not_exist", nil, Credentials{UserID: "u", APIKey: "k"})

	var rre *RemoteRequestError
	if !errors.As(err, &rre) {
		t.Fatalf("expected RemoteRequestError, got %v", err)
	}
	if rre.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rre.StatusCode)
	}
	if !strings.Contains(rre.Body, "unknown subcategory") {
		t.Errorf("expected raw body preserved, got %q", rre.Body)
	}
	if !strings.Contains(err.Error(), "HTTP 422") {
		t.Errorf("unexpected error text %q", err.Error())
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, common.NewSilentLogger())
	_, err := client.Status(context.Background(), "t", "a", "b", Credentials{})

	var rre *RemoteRequestError
	if !errors.As(err, &rre) {
		t.Fatalf("expected RemoteRequestError, got %v", err)
	}
	if rre.Err == nil || rre.StatusCode != 0 {
		t.Errorf("expected wrapped transport error, got %+v", rre)
	}
}

func TestClient_Status(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantStatus string
		wantError  string
	}{
		{"wrapped pending", `{"status":"success","data":{"status":"pending"}}`, "pending", ""},
		{"flat completed", `{"status":"COMPLETED"}`, "completed", ""},
		{"failed with detail", `{"data":{"status":"failed","error":"out of credits"}}`, "failed", "out of credits"},
		{"failed with message", `{"data":{"status":"failed","message":"gpu crashed"}}`, "failed", "gpu crashed"},
		{"no status", `{}`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, client := newFakeAPI(t, map[string]string{"/v2/status": tt.response})

			st, err := client.Status(context.Background(), "task-9", "imagegen", "sdxl", Credentials{UserID: "u", APIKey: "k"})
			if err != nil {
				t.Fatalf("Status failed: %v", err)
			}
			if st.Status != tt.wantStatus || st.Error != tt.wantError {
				t.Errorf("got %+v, want status=%q error=%q", st, tt.wantStatus, tt.wantError)
			}
			if api.requests[0].Body["id"] != "task-9" {
				t.Errorf("expected task id in body, got %v", api.requests[0].Body)
			}
		})
	}
}

func TestClient_FetchResult(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{
		"/v2/response": `{"status":"success","data":{"output":["https://cdn.example/a.png"]}}`,
	})

	result, err := client.FetchResult(context.Background(), "task-1", "imagegen", "sdxl", Credentials{UserID: "u", APIKey: "k"})
	if err != nil {
		t.Fatalf("FetchResult failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(result, &decoded); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if _, ok := decoded["output"]; !ok {
		t.Errorf("expected data payload to be unwrapped, got %s", result)
	}
}

func TestClient_FetchResultFlat(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{"/v2/response": `{"output":"hello"}`})

	result, err := client.FetchResult(context.Background(), "t", "textgen", "llama", Credentials{})
	if err != nil {
		t.Fatalf("FetchResult failed: %v", err)
	}
	if string(result) != `{"output":"hello"}` {
		t.Errorf("expected whole body as result, got %s", result)
	}
}

func TestClient_PollerEndToEnd(t *testing.T) {
	var mu sync.Mutex
	checks := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		checks++
		n := checks
		mu.Unlock()
		if n < 2 {
			w.Write([]byte(`{"data":{"status":"pending"}}`))
			return
		}
		w.Write([]byte(`{"data":{"status":"completed"}}`))
	})
	mux.HandleFunc("/response", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"url":"https://cdn.example/v.mp4"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, common.NewSilentLogger())
	poller := NewPoller(client, DefaultPollerConfig(), common.NewSilentLogger(), WithTimer(&recordingTimer{}))

	result, err := poller.Await(context.Background(), "t-1", "videogen", "kling", Credentials{UserID: "u", APIKey: "k"})
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if !strings.Contains(string(result), "v.mp4") {
		t.Errorf("unexpected result %s", result)
	}
}

func TestRemoteRequestError_TruncatesBody(t *testing.T) {
	err := &RemoteRequestError{Op: OpStatus, StatusCode: 500, Body: strings.Repeat("x", 2000)}
	if len(err.Error()) > 600 {
		t.Errorf("expected truncated message, got %d chars", len(err.Error()))
	}
}

func TestRemoteRequestError_TruncatesOnRuneBoundary(t *testing.T) {
	// 511 ASCII bytes then a 3-byte rune straddling the limit.
	body := strings.Repeat("a", 511) + "€" + strings.Repeat("b", 100)
	msg := (&RemoteRequestError{Op: OpGenerate, StatusCode: 422, Body: body}).Error()

	if !utf8.ValidString(msg) {
		t.Fatalf("truncated message is not valid UTF-8: %q", msg[len(msg)-10:])
	}
	if !strings.HasSuffix(msg, strings.Repeat("a", 511)+"...") {
		t.Errorf("expected cut before the split rune, got suffix %q", msg[len(msg)-10:])
	}

	short := (&RemoteRequestError{Op: OpGenerate, StatusCode: 422, Body: "näive"}).Error()
	if !strings.HasSuffix(short, ": näive") {
		t.Errorf("short body should be kept whole, got %q", short)
	}
}
