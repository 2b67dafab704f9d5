package kafka

import (
	"testing"
)

func TestMessageBuilderHeaders(t *testing.T) {
	msg := NewMessage().
		WithKey("link-1").
		WithValue(map[string]string{"status": "confirmed"}).
		WithEventType("booking.confirmed").
		WithSchemaVersion("1").
		WithSource("booking-engine").
		Build()

	if msg.Key != "link-1" {
		t.Errorf("unexpected key: %s", msg.Key)
	}
	if msg.GetEventType() != "booking.confirmed" {
		t.Errorf("unexpected event type: %s", msg.GetEventType())
	}
	if msg.Headers[HeaderSchemaVersion] != "1" {
		t.Errorf("unexpected schema version: %s", msg.Headers[HeaderSchemaVersion])
	}
	if msg.Headers[HeaderEventID] == "" {
		t.Error("Build should assign an event ID")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("Build should assign a timestamp header")
	}
}

func TestDecodeValueRoundTrip(t *testing.T) {
	type payload struct {
		LinkID string `json:"link_id"`
		Status string `json:"status"`
	}

	msg := NewMessage().
		WithKey("link-1").
		WithValue(payload{LinkID: "link-1", Status: "confirmed"}).
		Build()

	var decoded payload
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded.LinkID != "link-1" || decoded.Status != "confirmed" {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestDecodeValueRejectsGarbage(t *testing.T) {
	msg := NewMessage().WithRawValue([]byte("{broken")).Build()

	var out map[string]any
	if err := msg.DecodeValue(&out); err == nil {
		t.Error("expected a decode error")
	}
}

func TestRetryCountRoundTrip(t *testing.T) {
	msg := NewMessage().WithKey("k").WithRawValue([]byte("{}")).Build()

	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("fresh message should have retry count 0, got %d", got)
	}

	msg.IncrementRetryCount()
	msg.IncrementRetryCount()
	if got := msg.GetRetryCount(); got != 2 {
		t.Errorf("expected retry count 2, got %d", got)
	}
}
