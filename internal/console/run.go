package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

type lineReader interface {
	ReadLine() (string, error)
}

type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) ReadLine() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

type readResult struct {
	line string
	err  error
}

// Run reads lines from in and dispatches them until EOF, quit, or ctx is
// cancelled. When in is a terminal it is switched to raw mode and given line
// editing; console output is then routed through the terminal so replies do
// not clobber the prompt.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	reader, restore, err := c.open(in)
	if err != nil {
		return err
	}
	defer restore()

	lines := make(chan readResult)
	go func() {
		for {
			line, err := reader.ReadLine()
			select {
			case lines <- readResult{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-lines:
			if r.err != nil {
				if errors.Is(r.err, io.EOF) {
					c.logger.Info("console input closed")
					return nil
				}
				return fmt.Errorf("read console input: %w", r.err)
			}

			err := c.Dispatch(ctx, r.line)
			if errors.Is(err, ErrQuit) {
				c.logger.Info("quit requested from console")
				return nil
			}
			if err != nil {
				c.logger.Error("command failed", "command", r.line, "error", err)
				c.Printf("Error: %v", err)
			}
		}
	}
}

func (c *Console) open(in io.Reader) (lineReader, func(), error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return &scanReader{scanner: bufio.NewScanner(in)}, func() {}, nil
	}

	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, fmt.Errorf("enable raw terminal mode: %w", err)
	}

	c.outMu.Lock()
	out := c.out
	c.outMu.Unlock()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, out}, c.prompt)
	prev := c.setOutput(t)

	restore := func() {
		c.setOutput(prev)
		if err := term.Restore(fd, state); err != nil {
			c.logger.Warn("restore terminal failed", "error", err)
		}
	}
	return t, restore, nil
}
