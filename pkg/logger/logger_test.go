package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "storefront", Level: zerolog.DebugLevel, Output: &buf})

	ctx := logg.WithDeviceID(context.Background(), "device-1")
	ctx = logg.WithUserID(ctx, "user-1")
	logg.Info(ctx, "cart.reload")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if entry["device_id"] != "device-1" || entry["user_id"] != "user-1" {
		t.Fatalf("expected context fields on entry, got %v", entry)
	}
	if entry["service"] != "storefront" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
}

func TestLoggerErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "storefront", Output: &buf})

	logg.Error(context.Background(), "cart.add_failed", errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line: %v", err)
	}
	if entry["error"] != "boom" {
		t.Fatalf("expected error field, got %v", entry["error"])
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatal("expected stack on error entries")
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel(" DEBUG "); got != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", got)
	}
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %v", got)
	}
}

func TestNopDiscards(t *testing.T) {
	logg := Nop()
	logg.Info(context.Background(), "ignored")
	logg.Error(context.Background(), "ignored", errors.New("x"))
}
