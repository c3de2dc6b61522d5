package server

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/remotecmd/internal/config"
)

type capturePrinter struct {
	mu    sync.Mutex
	lines []string
}

func (p *capturePrinter) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
}

func (p *capturePrinter) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		for _, l := range p.lines {
			if l == want {
				p.mu.Unlock()
				return
			}
		}
		p.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	t.Fatalf("line %q never printed; got %q", want, p.lines)
}

func requireCat(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	return path
}

func TestServer_EchoAndStop(t *testing.T) {
	cat := requireCat(t)
	out := &capturePrinter{}
	srv := New(config.ServerConfig{Name: "sunship", Command: cat}, out, nil)

	closed := make(chan struct{})
	srv.OnClose(func() { close(closed) })

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ok, err := srv.Execute(ctx, "give Hazae41 diamond")
	if err != nil || !ok {
		t.Fatalf("Execute() = %v, %v, want recognized", ok, err)
	}
	out.waitFor(t, "[sunship] give Hazae41 diamond")

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("OnClose callback did not run")
	}

	if _, err := srv.Execute(ctx, "give again"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Execute() after exit error = %v, want ErrNotRunning", err)
	}

	late := false
	srv.OnClose(func() { late = true })
	if !late {
		t.Error("OnClose after exit should run immediately")
	}
}

func TestServer_StopCommand(t *testing.T) {
	cat := requireCat(t)
	srv := New(config.ServerConfig{Name: "creative", Command: cat}, &capturePrinter{}, nil)

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ok, err := srv.Execute(ctx, "stop")
	if err != nil || !ok {
		t.Fatalf("Execute(stop) = %v, %v", ok, err)
	}

	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not exit after stop")
	}
}

func TestServer_PID(t *testing.T) {
	cat := requireCat(t)
	out := &capturePrinter{}
	srv := New(config.ServerConfig{Name: "sunship", Command: cat}, out, nil)

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		srv.Stop(stopCtx)
	}()

	ok, err := srv.Execute(ctx, "pid")
	if err != nil || !ok {
		t.Fatalf("Execute(pid) = %v, %v", ok, err)
	}
	out.mu.Lock()
	defer out.mu.Unlock()
	if len(out.lines) != 1 || !strings.HasPrefix(out.lines[0], "[sunship] pid ") {
		t.Errorf("lines = %q, want pid line", out.lines)
	}
}

func TestServer_AllowList(t *testing.T) {
	srv := New(config.ServerConfig{
		Name:     "sunship",
		Command:  "unused",
		Commands: []string{"give", "say"},
	}, &capturePrinter{}, nil)

	ok, err := srv.Execute(context.Background(), "fly away")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if ok {
		t.Error("label outside the allow-list should not be recognized")
	}

	// Allowed labels reach the process, which is not running here.
	if _, err := srv.Execute(context.Background(), "give a"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Execute(give) error = %v, want ErrNotRunning", err)
	}
}

func TestServer_NotStarted(t *testing.T) {
	srv := New(config.ServerConfig{Name: "sunship", Command: "unused"}, &capturePrinter{}, nil)

	if _, err := srv.Execute(context.Background(), "pid"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Execute(pid) error = %v, want ErrNotRunning", err)
	}
	if err := srv.Stop(context.Background()); err != nil {
		t.Errorf("Stop() on unstarted server error = %v", err)
	}
	if srv.ID().String() == "" || srv.Name() != "sunship" {
		t.Errorf("ID() = %v, Name() = %q", srv.ID(), srv.Name())
	}
}

func TestServer_StartFailure(t *testing.T) {
	srv := New(config.ServerConfig{Name: "ghost", Command: "/nonexistent/remotecmd-test-binary"}, &capturePrinter{}, nil)
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start() expected error for missing binary")
	}
}

func TestSupervisor(t *testing.T) {
	cat := requireCat(t)
	out := &capturePrinter{}
	sup := NewSupervisor([]config.ServerConfig{
		{Name: "sunship", Command: cat},
		{Name: "creative", Command: cat},
	}, out, nil)

	ctx := context.Background()
	if err := sup.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(sup.Servers()) != 2 {
		t.Fatalf("len(Servers()) = %d, want 2", len(sup.Servers()))
	}

	for _, srv := range sup.Servers() {
		if _, err := srv.Execute(ctx, "hello from "+srv.Name()); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	out.waitFor(t, "[sunship] hello from sunship")
	out.waitFor(t, "[creative] hello from creative")

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sup.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := sup.Wait(stopCtx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestEnvList(t *testing.T) {
	got := envList(map[string]string{"B": "2", "A": "1"})
	if strings.Join(got, ",") != "A=1,B=2" {
		t.Errorf("envList() = %v", got)
	}
}
