package boundary

import "fmt"

// Class classifies a boundary function by the kind of callback it registers.
type Class int

// The boundary classes.
const (
	// Continuation registers success and failure continuations on a deferred
	// value.
	Continuation Class = iota
	// Subscription registers a listener for named events.
	Subscription
	// ScheduledCallback schedules a callback on a timer or task queue.
	ScheduledCallback
	// CompletionCallback registers the callback of an asynchronous I/O
	// operation.
	CompletionCallback
)

func (c Class) String() string {
	switch c {
	case Continuation:
		return "continuation"
	case Subscription:
		return "subscription"
	case ScheduledCallback:
		return "scheduled-callback"
	case CompletionCallback:
		return "completion-callback"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// DefaultPositions returns the argument positions that hold callbacks for the
// class. Negative positions count from the end of the parameter list, so -1
// is the last parameter.
func (c Class) DefaultPositions() []int {
	switch c {
	case Continuation:
		return []int{-2, -1}
	case ScheduledCallback:
		return []int{0}
	default:
		return []int{-1}
	}
}

// A Descriptor declares which arguments of a boundary function are callbacks.
type Descriptor struct {
	Class     Class
	Positions []int
}
