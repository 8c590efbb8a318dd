package pagerduty

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openfolio/portfolio-api/internal/observability/notify"
)

func TestSendBuildsTriggerEvent(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		RoutingKey: "rk-123",
		Source:     "portfolio-api",
		Endpoint:   srv.URL,
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	event := notify.Event{
		Kind:       notify.KindAuthBackendDown,
		Severity:   notify.SeverityCritical,
		Summary:    "Session backend unreachable",
		Detail:     "refresh loop exited",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Metadata:   map[string]string{"mode": "hosted"},
	}
	if err := client.Send(context.Background(), event); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if gotBody["routing_key"] != "rk-123" {
		t.Errorf("unexpected routing key %v", gotBody["routing_key"])
	}
	if gotBody["event_action"] != "trigger" {
		t.Errorf("unexpected event action %v", gotBody["event_action"])
	}
	if gotBody["dedup_key"] != notify.KindAuthBackendDown {
		t.Errorf("unexpected dedup key %v", gotBody["dedup_key"])
	}

	payload, _ := gotBody["payload"].(map[string]any)
	if payload["summary"] != "Session backend unreachable" {
		t.Errorf("unexpected summary %v", payload["summary"])
	}
	if payload["severity"] != notify.SeverityCritical {
		t.Errorf("unexpected severity %v", payload["severity"])
	}
	if payload["source"] != "portfolio-api" {
		t.Errorf("unexpected source %v", payload["source"])
	}

	custom, _ := payload["custom_details"].(map[string]any)
	if custom["detail"] != "refresh loop exited" {
		t.Errorf("unexpected detail %v", custom["detail"])
	}
	if custom["mode"] != "hosted" {
		t.Errorf("unexpected metadata %v", custom["mode"])
	}
}

func TestSendSurfacesAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid routing key", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if err := client.Send(context.Background(), notify.Event{Kind: "x"}); err == nil {
		t.Fatal("expected API error")
	}
}

func TestNewClientRequiresRoutingKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without routing key")
	}
}
