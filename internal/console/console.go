package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// UnknownCommandHint is printed when nothing recognizes a command.
const UnknownCommandHint = `Unknown command. Type "help" for help.`

// ErrQuit is returned by Dispatch when the operator asks the host to stop.
var ErrQuit = errors.New("quit requested")

// CommandListener receives a raw input line.
type CommandListener func(ctx context.Context, line string) Result

// HelpListener contributes entries to a help request.
type HelpListener func(help *Help)

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrompt sets the prompt shown in interactive mode.
func WithPrompt(prompt string) Option {
	return func(c *Console) {
		c.prompt = prompt
	}
}

// Console dispatches operator input to listeners and prints replies.
type Console struct {
	logger *slog.Logger
	prompt string

	mu       sync.RWMutex
	commands []CommandListener
	helps    []HelpListener

	// dispatchMu serializes Dispatch so one line is fully handled before
	// the next is looked at.
	dispatchMu sync.Mutex

	outMu sync.Mutex
	out   io.Writer
}

// New creates a Console writing to out.
func New(out io.Writer, opts ...Option) *Console {
	c := &Console{
		logger: slog.Default(),
		prompt: "> ",
		out:    out,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnCommand appends listeners. They are consulted in the order given, after
// any listeners registered earlier.
func (c *Console) OnCommand(listeners ...CommandListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, listeners...)
}

// OnHelp appends a help listener.
func (c *Console) OnHelp(listener HelpListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.helps = append(c.helps, listener)
}

// Dispatch offers line to the command listeners in order. It returns nil
// once a listener handles the line, the listener's error if it fails, and
// falls back to the built-in commands when no listener matches.
func (c *Console) Dispatch(ctx context.Context, line string) error {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.RLock()
	listeners := make([]CommandListener, len(c.commands))
	copy(listeners, c.commands)
	c.mu.RUnlock()

	for i, listener := range listeners {
		res := listener(ctx, line)
		switch res.Status {
		case NotMatched:
			continue
		case Handled:
			c.logger.Debug("command handled", "listener", i)
			return nil
		case Failed:
			c.logger.Debug("command failed", "listener", i, "error", res.Err)
			return res.Err
		default:
			return fmt.Errorf("listener %d returned unknown status %d", i, res.Status)
		}
	}

	return c.builtin(line)
}

// RequestHelp collects help entries for prefix from every help listener.
func (c *Console) RequestHelp(prefix string) *Help {
	c.mu.RLock()
	listeners := make([]HelpListener, len(c.helps))
	copy(listeners, c.helps)
	c.mu.RUnlock()

	help := NewHelp(prefix)
	for _, listener := range listeners {
		listener(help)
	}
	if prefix == "" {
		help.Set("help [topic]", "Show help, optionally for a topic")
		help.Set("quit", "Stop all servers and exit")
	}
	return help
}

// Println writes one line, separating operands with spaces.
func (c *Console) Println(a ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if _, err := fmt.Fprintln(c.out, a...); err != nil {
		c.logger.Warn("console write failed", "error", err)
	}
}

// Printf formats one line. A trailing newline is added when missing.
func (c *Console) Printf(format string, a ...any) {
	s := fmt.Sprintf(format, a...)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if _, err := io.WriteString(c.out, s); err != nil {
		c.logger.Warn("console write failed", "error", err)
	}
}

func (c *Console) setOutput(w io.Writer) io.Writer {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	prev := c.out
	c.out = w
	return prev
}

// builtin handles lines no listener claimed.
func (c *Console) builtin(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "help":
		prefix := strings.Join(fields[1:], " ")
		help := c.RequestHelp(prefix)
		if help.Len() == 0 {
			c.Printf("No help for %q.", prefix)
			return nil
		}
		for _, e := range help.Entries() {
			c.Println(e.Pattern, "-", e.Description)
		}
		return nil
	case "quit":
		return ErrQuit
	default:
		c.Println(UnknownCommandHint)
		return nil
	}
}
