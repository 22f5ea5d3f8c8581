package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type captureHandler struct {
	updates []tgbotapi.Update
}

func (h *captureHandler) HandleUpdate(_ context.Context, update tgbotapi.Update) {
	h.updates = append(h.updates, update)
}

func TestWebhookRoutes(t *testing.T) {
	h := &captureHandler{}
	s := NewServer(0, "s3cret", h)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		w := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(w, req)
		return w
	}

	if w := do(http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}

	update := `{"update_id": 10, "message": {"message_id": 1, "chat": {"id": 42}, "text": "/start"}}`
	if w := do(http.MethodPost, "/webhook/wrong", update); w.Code != http.StatusForbidden {
		t.Errorf("wrong secret = %d, want 403", w.Code)
	}
	if len(h.updates) != 0 {
		t.Fatal("update leaked past the secret check")
	}

	if w := do(http.MethodPost, "/webhook/s3cret", "{broken"); w.Code != http.StatusBadRequest {
		t.Errorf("broken body = %d, want 400", w.Code)
	}

	if w := do(http.MethodPost, "/webhook/s3cret", update); w.Code != http.StatusOK {
		t.Errorf("valid update = %d, want 200", w.Code)
	}
	if len(h.updates) != 1 || h.updates[0].UpdateID != 10 {
		t.Fatalf("updates = %+v", h.updates)
	}
	if h.updates[0].Message == nil || h.updates[0].Message.Chat.ID != 42 {
		t.Errorf("decoded message = %+v", h.updates[0].Message)
	}
}
