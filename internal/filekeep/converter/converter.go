// Package converter runs the external model-to-fragment conversion tool.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

var (
	ErrTimeout       = errors.New("converter: timed out")
	ErrNoOutput      = errors.New("converter: no output produced")
	ErrNotConfigured = errors.New("converter: binary not configured")
)

// Converter turns the file at in into a fragment file at out.
type Converter interface {
	Convert(ctx context.Context, in, out string) error
	SelfTest(ctx context.Context) error
}

const (
	DefaultTimeout = 10 * time.Minute
	stderrLimit    = 4 << 10
	selfTestFlag   = "--self-test"
)

// Process invokes Bin with Args followed by the input and output paths.
type Process struct {
	Bin     string
	Args    []string
	Timeout time.Duration
}

func (p *Process) Convert(ctx context.Context, in, out string) error {
	args := append(append([]string{}, p.Args...), in, out)
	if err := p.run(ctx, args); err != nil {
		return err
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		return ErrNoOutput
	}
	return nil
}

// SelfTest runs the tool with --self-test and expects a zero exit status.
func (p *Process) SelfTest(ctx context.Context) error {
	return p.run(ctx, append(append([]string{}, p.Args...), selfTestFlag))
}

func (p *Process) run(ctx context.Context, args []string) error {
	if p.Bin == "" {
		return ErrNotConfigured
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Bin, args...)
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: stderrLimit}
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("converter: %w", err)
		}
		return fmt.Errorf("converter: %w: %s", err, msg)
	}
	return nil
}

type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if room := w.limit - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
