package hop

import (
	"sync"

	"github.com/sarchlab/longstack/hooking"
)

// HookPosPush is triggered after a context becomes active.
var HookPosPush = &hooking.HookPos{Name: "Push"}

// HookPosPop is triggered after a context stops being active.
var HookPosPop = &hooking.HookPos{Name: "Pop"}

// A Stack holds the contexts of the callbacks that are currently executing,
// innermost last. Callbacks run on a single goroutine, so pushes and pops
// always nest.
type Stack struct {
	hooking.HookableBase

	lock     sync.Mutex
	contexts []*Context
}

// DefaultStack is the process-wide stack.
var DefaultStack = NewStack()

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push makes c the topmost active context.
func (s *Stack) Push(c *Context) {
	s.lock.Lock()
	s.contexts = append(s.contexts, c)
	depth := len(s.contexts)
	s.lock.Unlock()

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosPush,
		Item:   c,
		Detail: depth,
	})
}

// Pop removes and returns the topmost context. It returns nil if the stack is
// empty.
func (s *Stack) Pop() *Context {
	s.lock.Lock()
	n := len(s.contexts)
	if n == 0 {
		s.lock.Unlock()
		return nil
	}

	c := s.contexts[n-1]
	s.contexts[n-1] = nil
	s.contexts = s.contexts[:n-1]
	s.lock.Unlock()

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosPop,
		Item:   c,
		Detail: n - 1,
	})

	return c
}

// Top returns the topmost context, or nil if no context is active.
func (s *Stack) Top() *Context {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.contexts) == 0 {
		return nil
	}

	return s.contexts[len(s.contexts)-1]
}

// Depth returns the number of active contexts.
func (s *Stack) Depth() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.contexts)
}

// Snapshot returns the active contexts, topmost first.
func (s *Stack) Snapshot() []*Context {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]*Context, len(s.contexts))
	for i, c := range s.contexts {
		out[len(s.contexts)-1-i] = c
	}

	return out
}
