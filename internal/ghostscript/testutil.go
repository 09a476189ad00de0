package ghostscript

import (
	"context"
	"sync"
)

// CommandCollector is a Runner that records every command it is given. It
// optionally delegates to another run function so tests can fake engine
// output and side effects.
type CommandCollector struct {
	mu          sync.Mutex
	commands    []*Command
	delegateRun func(context.Context, *Command) error
}

// Commands returns the commands seen so far, oldest first.
func (c *CommandCollector) Commands() []*Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]*Command, len(c.commands))
	copy(result, c.commands)
	return result
}

// ClearCommands forgets all recorded commands.
func (c *CommandCollector) ClearCommands() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = nil
}

// SetDelegateRun sets the function invoked for each command after it has
// been recorded.
func (c *CommandCollector) SetDelegateRun(delegateRun func(context.Context, *Command) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delegateRun = delegateRun
}

func (c *CommandCollector) Run(ctx context.Context, command *Command) error {
	c.mu.Lock()
	c.commands = append(c.commands, command)
	delegateRun := c.delegateRun
	c.mu.Unlock()
	if delegateRun != nil {
		return delegateRun(ctx, command)
	}
	return nil
}
