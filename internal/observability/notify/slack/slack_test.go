package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openfolio/portfolio-api/internal/observability/notify"
)

func contactEvent() notify.Event {
	return notify.Event{
		Kind:       notify.KindContactReceived,
		Severity:   notify.SeverityInfo,
		Summary:    "New contact message from Ada",
		Detail:     "Hello there",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Metadata:   map[string]string{"id": "msg-1", "email": "ada@example.com"},
	}
}

func TestSendPostsFormattedMessage(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		WebhookURL:     srv.URL,
		Channel:        "#inbox",
		Username:       "folio-bot",
		AdminURLPrefix: "https://folio.example.com/admin/contact",
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if err := client.Send(context.Background(), contactEvent()); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	text, _ := gotBody["text"].(string)
	if !strings.Contains(text, "New contact message from Ada") {
		t.Errorf("missing summary in %q", text)
	}
	if !strings.Contains(text, "https://folio.example.com/admin/contact/msg-1") {
		t.Errorf("missing inbox link in %q", text)
	}
	if !strings.Contains(text, "email: ada@example.com") {
		t.Errorf("missing metadata in %q", text)
	}
	if !strings.Contains(text, "2026-03-01T12:00:00Z") {
		t.Errorf("missing timestamp in %q", text)
	}
	if gotBody["channel"] != "#inbox" {
		t.Errorf("unexpected channel %v", gotBody["channel"])
	}
	if gotBody["username"] != "folio-bot" {
		t.Errorf("unexpected username %v", gotBody["username"])
	}
}

func TestSendRetriesOnFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 2})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if err := client.Send(context.Background(), contactEvent()); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestSendSurfacesFinalError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	err = client.Send(context.Background(), contactEvent())
	if err == nil {
		t.Fatal("expected error from failing webhook")
	}
	if !strings.Contains(err.Error(), "no_service") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClientRequiresWebhook(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without webhook URL")
	}
}

func TestInboxLinkSkippedForNonContactEvents(t *testing.T) {
	t.Parallel()

	client := &Client{adminURLPrefix: "https://folio.example.com/admin/contact"}
	event := notify.Event{Kind: notify.KindAuthBackendDown, Metadata: map[string]string{"id": "x"}}

	if link := client.buildInboxLink(event); link != "" {
		t.Fatalf("expected no link, got %q", link)
	}
}
