package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when routing key missing")
	}
}

func TestBuildEventDefaults(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key", Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := client.buildEvent(notify.OutagePayload{
		Component:  "auth_guard",
		State:      "error",
		Message:    "Directory unavailable",
		Error:      "boom",
		ErrorClass: "err_class",
		Metadata:   map[string]string{"store": "faculty", "error": "ignored"},
	})

	if event["event_action"] != "trigger" || event["dedup_key"] != "portal:auth_guard" {
		t.Fatalf("unexpected event header: %v", event)
	}
	payloadSection, ok := event["payload"].(map[string]any)
	if !ok {
		t.Fatalf("expected payload section")
	}
	if payloadSection["severity"] != notify.SeverityCritical {
		t.Fatalf("expected default severity, got %v", payloadSection["severity"])
	}
	if payloadSection["source"] != "campus-portal" || payloadSection["component"] != "auth-guard" {
		t.Fatalf("expected default source and component, got %v", payloadSection)
	}
	custom, ok := payloadSection["custom_details"].(map[string]any)
	if !ok {
		t.Fatalf("expected custom details")
	}
	if custom["error"] != "boom" || custom["store"] != "faculty" || custom["error_class"] != "err_class" {
		t.Fatalf("unexpected custom details: %v", custom)
	}
}

func TestBuildEventResolve(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	event := client.buildEvent(notify.OutagePayload{Component: "auth_guard", Resolved: true})
	if event["event_action"] != "resolve" || event["dedup_key"] != "portal:auth_guard" {
		t.Fatalf("unexpected resolve event: %v", event)
	}
	if _, ok := event["payload"]; ok {
		t.Fatal("resolve events carry no payload")
	}
}

func TestSendOutagePostsToEndpoint(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.SendOutage(context.Background(), notify.OutagePayload{Component: "auth_guard"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["routing_key"] != "key" {
		t.Fatalf("unexpected body: %v", got)
	}
}
