package console

import "errors"

// Status classifies what a command listener did with a line.
type Status int

const (
	// NotMatched lets the next listener see the line.
	NotMatched Status = iota
	// Handled stops propagation.
	Handled
	// Failed stops propagation and returns Result.Err from Dispatch.
	Failed
)

func (s Status) String() string {
	switch s {
	case NotMatched:
		return "not_matched"
	case Handled:
		return "handled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is returned by every CommandListener.
type Result struct {
	Status Status
	Err    error
}

// Skip lets later listeners handle the line.
func Skip() Result {
	return Result{Status: NotMatched}
}

// Consume marks the line as fully handled.
func Consume() Result {
	return Result{Status: Handled}
}

// Fail marks the line as handled with an error that Dispatch must surface.
func Fail(err error) Result {
	if err == nil {
		err = errors.New("command failed")
	}
	return Result{Status: Failed, Err: err}
}
