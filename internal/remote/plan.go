package remote

import (
	"fmt"
	"strings"
)

type actionKind int

const (
	actionList actionKind = iota + 1
	actionFocus
	actionExit
	actionForward
)

// action is what a listener decided to do with a line.
type action struct {
	kind    actionKind
	key     string
	target  Target
	command string
	mode    string
}

// focus is the currently selected server.
type focus struct {
	key    string
	target Target
}

// planFocused decides what happens to line while f is set. ok is false when
// nothing is focused and the line belongs to the next listener.
func planFocused(f *focus, line string) (act action, ok bool) {
	if f == nil {
		return action{}, false
	}
	if firstWord(line) == "exit" {
		return action{kind: actionExit, key: f.key, target: f.target}, true
	}
	return action{
		kind:    actionForward,
		key:     f.key,
		target:  f.target,
		command: line,
		mode:    ModeFocus,
	}, true
}

// planRemote interprets the remote command family. ok is false for lines
// that are not remote commands. A name that does not resolve yields ok and
// a wrapped ErrInvalidServer.
func planRemote(reg *Registry, line string) (act action, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "remote" {
		return action{}, false, nil
	}
	if len(fields) == 1 {
		return action{kind: actionList}, true, nil
	}

	key := fields[1]
	target, found := reg.Get(key)
	if !found {
		return action{}, true, fmt.Errorf("%w: %q", ErrInvalidServer, key)
	}

	if len(fields) == 2 {
		return action{kind: actionFocus, key: key, target: target}, true, nil
	}
	return action{
		kind:    actionForward,
		key:     key,
		target:  target,
		command: strings.Join(fields[2:], " "),
		mode:    ModeOneShot,
	}, true, nil
}

func firstWord(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
