package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrEngineMissing is returned when the OCR binary is not on PATH.
var ErrEngineMissing = errors.New("ocr engine not installed")

// Runner executes the OCR binary. Tests replace it with a stub.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

const (
	maxStdout = 16 << 20
	maxStderr = 8 << 10
)

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		logger.Error("ocr.exec.missing", "cmd", name, "error", err)
		return nil, nil, fmt.Errorf("%w: %s", ErrEngineMissing, name)
	}

	start := time.Now()
	logger.Debug("ocr.exec.start", "cmd_line", strings.Join(append([]string{name}, args...), " "))

	out := &cappedBuffer{limit: maxStdout}
	errb := &cappedBuffer{limit: maxStderr}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = errb
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	switch {
	case ctx.Err() != nil:
		err = fmt.Errorf("%s: %w", name, ctx.Err())
		logger.Warn("ocr.exec.cancelled", "cmd", name, "elapsed_ms", elapsed)
	case err != nil:
		logger.Error("ocr.exec.failed", "cmd", name, "elapsed_ms", elapsed, "error", err, "stderr", errb.String())
	default:
		logger.Debug("ocr.exec.ok", "cmd", name, "elapsed_ms", elapsed, "stdout_bytes", len(out.buf), "truncated", out.dropped > 0)
	}
	return out.buf, errb.buf, err
}

// cappedBuffer keeps the first limit bytes written and counts the rest.
type cappedBuffer struct {
	buf     []byte
	limit   int
	dropped int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	room := c.limit - len(c.buf)
	if room >= len(p) {
		c.buf = append(c.buf, p...)
		return len(p), nil
	}
	if room > 0 {
		c.buf = append(c.buf, p[:room]...)
	}
	c.dropped += len(p) - max(room, 0)
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	if c.dropped == 0 {
		return string(c.buf)
	}
	return fmt.Sprintf("%s...(%d bytes truncated)", c.buf, c.dropped)
}
