package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{
			"strict shape",
			`{"choices": [{"message": {"content": "привет"}}]}`,
			"привет",
		},
		{
			"loose shape with extra fields",
			`{"id": "x", "choices": [{"index": 0, "message": {"role": "assistant", "content": "ответ"}, "finish_reason": "stop"}]}`,
			"ответ",
		},
		{"empty choices", `{"choices": []}`, "⚠️ Пустой ответ модели."},
		{"empty content", `{"choices": [{"message": {"content": ""}}]}`, "⚠️ Пустой ответ модели."},
		{"garbage", `not json`, "⚠️ Пустой ответ модели."},
	}
	for _, tt := range tests {
		if got := parseReply(tt.body); got != tt.want {
			t.Errorf("%s: parseReply = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCompleteNoKey(t *testing.T) {
	c := NewClient("https://openrouter.ai/api/v1", "", "m", "", "")
	if _, err := c.Complete(context.Background(), nil, time.Second); err != ErrNoAPIKey {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestCompleteSendsHeadersAndBody(t *testing.T) {
	var gotAuth, gotReferer, gotTitle string
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("Referer")
		gotTitle = r.Header.Get("X-Title")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "test-model", "https://brand.example", "Brand")
	reply, err := c.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "q"},
	}, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if reply != "ok" {
		t.Errorf("reply = %q", reply)
	}
	if gotAuth != "Bearer sk-test" || gotReferer != "https://brand.example" || gotTitle != "Brand" {
		t.Errorf("headers: %q %q %q", gotAuth, gotReferer, gotTitle)
	}
	if gotReq.Model != "test-model" || len(gotReq.Messages) != 2 || gotReq.Temperature != 0.2 {
		t.Errorf("request body: %+v", gotReq)
	}
}

func TestCompleteRetriesOn429(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "после повтора"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "m", "", "")
	reply, err := c.Complete(context.Background(), nil, 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if reply != "после повтора" {
		t.Errorf("reply = %q", reply)
	}
}

func TestRetryPause(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := retryPause(tt.attempt); got != tt.want {
			t.Errorf("retryPause(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestCompleteHardErrorNoRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "bad key"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "m", "", "")
	_, err := c.Complete(context.Background(), nil, 30*time.Second)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want 401 error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want no retry on 401", calls)
	}
}

func TestCompleteContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect and
		// cancel the request context; otherwise Close hangs forever.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	c := NewClient(srv.URL, "sk-test", "m", "", "")
	_, err := c.Complete(ctx, nil, 30*time.Second)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
