package analysis

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
)

var ErrNoCommand = errors.New("analysis command not configured")

// ExecTrigger launches the analyzer as a child process and does not wait for it.
type ExecTrigger struct {
	argv []string
	log  *logger.Logger

	// start is swapped in tests
	start func(cmd *exec.Cmd) error
}

func NewExecTrigger(argv []string, log *logger.Logger) *ExecTrigger {
	return &ExecTrigger{argv: argv, log: log, start: startDetached(log)}
}

// Args builds the analyzer command line for one request.
func (t *ExecTrigger) Args(side models.Side, start, end time.Time) []string {
	req := newRequest(side, start, end)
	args := append([]string(nil), t.argv[1:]...)
	return append(args,
		"--side", string(req.Side),
		"--start_time", req.StartTime,
		"--end_time", req.EndTime,
	)
}

func (t *ExecTrigger) Analyze(_ context.Context, side models.Side, start, end time.Time) error {
	if len(t.argv) == 0 {
		return ErrNoCommand
	}
	// not tied to the request context: the analyzer outlives the handler
	cmd := exec.Command(t.argv[0], t.Args(side, start, end)...)
	if err := t.start(cmd); err != nil {
		return fmt.Errorf("start analyzer: %w", err)
	}
	t.log.Infow("analysis_started", "side", side, "start", start, "end", end)
	return nil
}

func startDetached(log *logger.Logger) func(*exec.Cmd) error {
	return func(cmd *exec.Cmd) error {
		if err := cmd.Start(); err != nil {
			return err
		}
		go func() {
			if err := cmd.Wait(); err != nil {
				log.Warnw("analysis_exited", "error", err)
			}
		}()
		return nil
	}
}
