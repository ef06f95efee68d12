package research

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"airlog/internal/logging"
	"airlog/internal/testsupport"
)

func TestHandoffPassesRecordPath(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	cfg := testsupport.NewConfig(t)
	cfg.Research.Enabled = true
	cfg.Research.Command = []string{"sh", "-c", "echo \"$0\" > " + marker}

	runner := New(cfg, logging.NewNop())
	if runner == nil {
		t.Fatal("expected runner for enabled research")
	}
	record := filepath.Join(dir, "August 30, 2026.md")
	if err := runner.Handoff(context.Background(), record); err != nil {
		t.Fatalf("Handoff: %v", err)
	}
	content, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if got := strings.TrimSpace(string(content)); got != record {
		t.Fatalf("command received %q, want %q", got, record)
	}
}

func TestDisabledResearchReturnsNilRunner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Research.Enabled = false

	runner := New(cfg, logging.NewNop())
	if runner != nil {
		t.Fatal("expected nil runner when disabled")
	}
	// Nil runner is a safe no-op.
	if err := runner.Handoff(context.Background(), "/nonexistent"); err != nil {
		t.Fatalf("nil runner Handoff: %v", err)
	}
}

func TestHandoffSurfacesCommandFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Research.Enabled = true
	cfg.Research.Command = []string{"sh", "-c", "echo boom >&2; exit 1"}

	runner := New(cfg, logging.NewNop())
	err := runner.Handoff(context.Background(), "/tmp/record.md")
	if err == nil {
		t.Fatal("expected failure from exiting command")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected command output in error, got %v", err)
	}
}
