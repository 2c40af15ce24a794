package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout marks a worker invocation that exceeded its wall-clock budget.
// The subprocess is killed; the unit is recorded, never retried.
var ErrTimeout = errors.New("worker timed out")

// Generator produces free-form model output for a prompt. Implementations may
// wrap a subprocess, an HTTP model endpoint, or an in-process binding.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Runner abstracts subprocess execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, stdin string) (string, error)
}

// GeneratorOption customizes the command generator.
type GeneratorOption func(*CommandGenerator)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(runner Runner) GeneratorOption {
	return func(g *CommandGenerator) {
		if runner != nil {
			g.runner = runner
		}
	}
}

// CommandGenerator invokes a local model binary ("<binary> run <model>"),
// writing the prompt to stdin and reading the whole response from stdout.
type CommandGenerator struct {
	binary  string
	model   string
	timeout time.Duration
	runner  Runner
}

// NewCommandGenerator constructs a subprocess-backed generator.
func NewCommandGenerator(binary, model string, timeoutSeconds int, opts ...GeneratorOption) (*CommandGenerator, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("worker binary required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("worker model required")
	}
	gen := &CommandGenerator{
		binary:  binary,
		model:   model,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		runner:  commandRunner{},
	}
	for _, opt := range opts {
		opt(gen)
	}
	return gen, nil
}

// Generate runs one round trip. The timeout covers the whole exchange; on
// expiry the process is killed and ErrTimeout is returned.
func (g *CommandGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	runCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.runner.Run(runCtx, g.binary, []string{"run", g.model}, prompt)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("run %s: %w", g.binary, err)
	}
	return strings.TrimSpace(out), nil
}

type commandRunner struct{}

func (commandRunner) Run(ctx context.Context, binary string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
