package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testNote() Notification {
	return Notification{
		Asset:       "bitcoin",
		LastSuccess: time.Now().Add(-10 * time.Minute),
		Age:         10 * time.Minute,
		Threshold:   5 * time.Minute,
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testNote()); err != nil {
		t.Fatalf("notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("wrong chat_id: %#v", received)
	}
	if !strings.Contains(received["text"], "bitcoin") {
		t.Fatalf("message should name the asset: %q", received["text"])
	}
}

func TestTelegramNotifierRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testNote()); err == nil {
		t.Fatal("ok=false should be an error")
	}
}

func TestTelegramNotifierHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testNote()); err == nil {
		t.Fatal("5xx should be an error")
	}
}

func TestRenderMessageNeverSucceeded(t *testing.T) {
	msg := renderMessage(Notification{Asset: "solana", Threshold: 5 * time.Minute})
	if !strings.Contains(msg, "Last success: never") {
		t.Fatalf("zero last-success should render as never: %q", msg)
	}
}
