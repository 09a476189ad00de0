package ghostscript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	osexec "os/exec"
	"strings"
	"time"
)

var (
	// ErrTimeout is returned when an invocation runs past its deadline. The
	// process is killed before the error is returned.
	ErrTimeout = errors.New("ghostscript timed out")
	// ErrNotFound is returned when the engine binary cannot be located.
	ErrNotFound = errors.New("ghostscript executable not found")
)

// waitDelay bounds how long Run waits for output pipes to drain once the
// process has been killed.
const waitDelay = 2 * time.Second

// Command is a single engine invocation.
type Command struct {
	// Name of the binary, either a path or something exec.LookPath can find.
	Name string
	// Arguments, not including Name.
	Args []string
	// Receives stdout and stderr interleaved. Output is discarded when nil.
	CombinedOutput io.Writer
	// Time limit for the whole invocation. No limit when zero.
	Timeout time.Duration
}

func (c *Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands. Tests substitute a CommandCollector.
type Runner interface {
	Run(ctx context.Context, command *Command) error
}

// ExecRunner runs commands as real subprocesses.
type ExecRunner struct{}

// Run blocks until the process exits, the timeout elapses or ctx is done.
func (ExecRunner) Run(ctx context.Context, command *Command) error {
	if command.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, command.Timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, command.Name, command.Args...)
	cmd.Stdout = command.CombinedOutput
	cmd.Stderr = command.CombinedOutput
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s: %w", ErrTimeout, command.Name, ctxErr)
		}
		return fmt.Errorf("%s: %w", command.Name, ctxErr)
	}
	if errors.Is(err, osexec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, command.Name)
	}
	return fmt.Errorf("running %s: %w", command.Name, err)
}
