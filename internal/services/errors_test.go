package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"airlog/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "catalog", "search", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"catalog", "search", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "archive", "insert", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "load", "missing key", nil), false},
		{"format", services.Wrap(services.ErrFormat, "archive", "scan", "table missing", nil), false},
		{"not found", services.Wrap(services.ErrNotFound, "catalog", "playlist", "gone", nil), false},
		{"rate limited", services.Wrap(services.ErrRateLimited, "catalog", "search", "429", nil), true},
		{"transient", services.Wrap(services.ErrTransient, "catalog", "add", "503", nil), true},
		{"canceled", context.Canceled, false},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
	}
	for _, tc := range cases {
		if got := services.Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
