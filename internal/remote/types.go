package remote

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidServer is returned when a remote command names an unknown server.
var ErrInvalidServer = errors.New("invalid server")

// Target is a server commands can be forwarded to.
//
// Implementations must be comparable (typically a pointer); the registry
// compares handles to tell a closing target from its replacement.
type Target interface {
	// Name is the display name. Its lowercase form is the registry key.
	Name() string

	// Execute runs command on the server. recognized is false when the
	// server did not understand it; err reports that the command could not
	// be delivered at all.
	Execute(ctx context.Context, command string) (recognized bool, err error)

	// OnClose registers fn to run once when the server goes away. If the
	// server is already closed fn runs immediately.
	OnClose(fn func())
}

// Forward modes.
const (
	ModeFocus   = "focus"
	ModeOneShot = "oneshot"
)

// Forward describes one command handed to a Target.
type Forward struct {
	Key        string
	Target     Target
	Command    string
	Mode       string // ModeFocus or ModeOneShot
	Recognized bool
	Err        error
	StartedAt  time.Time
	Duration   time.Duration
}

// Recorder receives every Forward. It must not block.
type Recorder interface {
	RecordForward(f Forward)
}

// Stats contains router counters.
type Stats struct {
	Commands       int64 // lines offered to the focus listener
	Forwarded      int64
	Unrecognized   int64
	InvalidServer  int64
	ExecuteErrors  int64
	StaleFocusDrop int64
}
