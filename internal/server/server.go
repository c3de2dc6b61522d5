package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rickgao/remotecmd/internal/config"
)

// ErrNotRunning is returned when a command reaches a server whose process is
// not running.
var ErrNotRunning = errors.New("server not running")

// Printer receives relayed output lines.
type Printer interface {
	Println(a ...any)
}

// Server is one hosted child process.
type Server struct {
	id      uuid.UUID
	cfg     config.ServerConfig
	out     Printer
	logger  *slog.Logger
	allowed map[string]bool

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	started  bool
	closed   bool
	exitErr  error
	closeFns []func()

	relays sync.WaitGroup
	done   chan struct{}
}

// New creates a Server. The process is not started until Start.
func New(cfg config.ServerConfig, out Printer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	var allowed map[string]bool
	if len(cfg.Commands) > 0 {
		allowed = make(map[string]bool, len(cfg.Commands))
		for _, c := range cfg.Commands {
			allowed[c] = true
		}
	}

	id := uuid.New()
	return &Server{
		id:      id,
		cfg:     cfg,
		out:     out,
		logger:  logger.With("server", cfg.Name, "instance", id),
		allowed: allowed,
		done:    make(chan struct{}),
	}
}

// ID returns the instance ID assigned when the Server was created.
func (s *Server) ID() uuid.UUID {
	return s.id
}

// Name returns the configured display name.
func (s *Server) Name() string {
	return s.cfg.Name
}

// Done is closed once the process has exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Err returns the process exit error after Done is closed.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// Start launches the process. ctx only bounds the launch itself; the process
// keeps running until it exits or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("server %s already started", s.cfg.Name)
	}

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Dir = s.cfg.Dir
	cmd.Env = append(os.Environ(), envList(s.cfg.Env)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.cfg.Command, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.started = true

	s.relays.Add(2)
	go s.relay(stdout)
	go s.relay(stderr)
	go s.wait()

	s.logger.Info("server started", "pid", cmd.Process.Pid, "command", s.cfg.Command)
	return nil
}

// Execute forwards command to the process. Built-in labels are answered by
// the host; other labels are refused when an allow-list is configured.
func (s *Server) Execute(ctx context.Context, command string) (bool, error) {
	label := ""
	if fields := strings.Fields(command); len(fields) > 0 {
		label = fields[0]
	}

	switch label {
	case "pid":
		pid, err := s.pid()
		if err != nil {
			return false, err
		}
		s.out.Println(s.prefix(), "pid", pid)
		return true, nil
	case "stop":
		if err := s.requestStop(); err != nil {
			return false, err
		}
		return true, nil
	}

	if s.allowed != nil && !s.allowed[label] {
		return false, nil
	}

	s.mu.Lock()
	stdin := s.stdin
	running := s.started && !s.closed
	s.mu.Unlock()
	if !running {
		return false, fmt.Errorf("%s: %w", s.cfg.Name, ErrNotRunning)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := io.WriteString(stdin, command+"\n")
		errc <- err
	}()

	select {
	case err := <-errc:
		if err != nil {
			return false, fmt.Errorf("write command: %w", err)
		}
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// OnClose registers fn to run once after the process exits. fn runs
// immediately if it already has.
func (s *Server) OnClose(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.closeFns = append(s.closeFns, fn)
	s.mu.Unlock()
}

// Stop asks the process to exit and waits for it. The process is killed if
// ctx expires first.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}

	if err := s.requestStop(); err != nil && !errors.Is(err, ErrNotRunning) {
		s.logger.Warn("graceful stop failed", "error", err)
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("server stop timed out, killing")
		s.mu.Lock()
		proc := s.cmd.Process
		s.mu.Unlock()
		if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill %s: %w", s.cfg.Name, err)
		}
		<-s.done
		return ctx.Err()
	}
}

// requestStop closes stdin and sends an interrupt.
func (s *Server) requestStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed {
		return fmt.Errorf("%s: %w", s.cfg.Name, ErrNotRunning)
	}

	if err := s.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		s.logger.Debug("close stdin", "error", err)
	}
	if err := s.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal %s: %w", s.cfg.Name, err)
	}
	s.logger.Info("stop requested")
	return nil
}

func (s *Server) pid() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed {
		return 0, fmt.Errorf("%s: %w", s.cfg.Name, ErrNotRunning)
	}
	return s.cmd.Process.Pid, nil
}

func (s *Server) prefix() string {
	return "[" + s.cfg.Name + "]"
}

// relay copies one output stream to the console line by line.
func (s *Server) relay(r io.Reader) {
	defer s.relays.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.out.Println(s.prefix(), scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("output relay stopped", "error", err)
	}
}

// wait reaps the process and fires the close callbacks.
func (s *Server) wait() {
	// Pipes must be drained before Wait closes them.
	s.relays.Wait()
	err := s.cmd.Wait()

	s.mu.Lock()
	s.closed = true
	s.exitErr = err
	fns := s.closeFns
	s.closeFns = nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("server exited", "error", err)
	} else {
		s.logger.Info("server exited")
	}

	close(s.done)
	for _, fn := range fns {
		fn()
	}
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
