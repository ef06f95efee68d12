// Package research hands completed daily records off to an external research
// command. The command receives the record path as its final argument and
// runs once per calendar-day rollover.
package research

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"airlog/internal/config"
	"airlog/internal/logging"
	"airlog/internal/services"
)

// Runner invokes the configured research command for a finished day.
type Runner struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a runner, or nil when research is disabled. A nil *Runner is
// safe to call.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	if !cfg.Research.Enabled || len(cfg.Research.Command) == 0 {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Research.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Runner{
		command: cfg.Research.Command,
		timeout: timeout,
		logger:  logger.With(logging.String(logging.FieldComponent, "research")),
	}
}

// Handoff runs the research command against one completed day's record file.
// The subprocess inherits nothing from the pipeline beyond the path argument.
func (r *Runner) Handoff(ctx context.Context, recordPath string) error {
	if r == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append(append([]string{}, r.command[1:]...), recordPath)
	cmd := exec.CommandContext(ctx, r.command[0], args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrTransient, "research", "run research command",
			strings.TrimSpace(string(output)), err)
	}
	r.logger.Info("research hand-off complete",
		logging.String("path", recordPath),
		logging.String("command", strings.Join(r.command, " ")))
	return nil
}
