package recording

import (
	"sync"
	"time"

	"github.com/sarchlab/longstack/hooking"
	"github.com/sarchlab/longstack/hop"
)

// A Recorder is a hook that records every context pushed on a hop.Stack.
type Recorder struct {
	writer Writer
	clock  func() float64
	keep   int
	lock   sync.Mutex
	byID   map[string]Hop
	recent []Hop
}

// An Option customizes a Recorder.
type Option func(r *Recorder)

// WithClock sets the source of the hop time, for example the Now method of
// an event loop. The default is the wall time since the recorder was created.
func WithClock(clock func() float64) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// WithRecent sets how many of the latest hops Recent returns.
func WithRecent(n int) Option {
	return func(r *Recorder) {
		r.keep = n
	}
}

// NewRecorder creates a recorder that writes hops to w. w may be nil, in
// which case hops are only kept in memory.
func NewRecorder(w Writer, opts ...Option) *Recorder {
	start := time.Now()
	r := &Recorder{
		writer: w,
		clock:  func() float64 { return time.Since(start).Seconds() },
		keep:   1000,
		byID:   make(map[string]Hop),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Func records the context of a push.
func (r *Recorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != hop.HookPosPush {
		return
	}

	c := ctx.Item.(*hop.Context)
	h := Hop{
		ContextID: c.ID(),
		Label:     c.Label(),
		Class:     c.Class(),
		Depth:     ctx.Detail.(int),
		Time:      r.clock(),
	}

	if p := c.Parent(); p != nil {
		h.ParentID = p.ID()
	}

	r.lock.Lock()
	if _, ok := r.byID[h.ContextID]; !ok {
		r.byID[h.ContextID] = h
	}

	r.recent = append(r.recent, h)
	if len(r.recent) > r.keep {
		r.recent = r.recent[len(r.recent)-r.keep:]
	}
	r.lock.Unlock()

	if r.writer != nil {
		r.writer.Write(h)
	}
}

// Recent returns the latest hops, oldest first.
func (r *Recorder) Recent() []Hop {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]Hop(nil), r.recent...)
}

// BackTrace returns the first activation of the context id followed by the
// first activations of its ancestors, newest first. It stops at the first
// ancestor that was never activated while the recorder was attached.
func (r *Recorder) BackTrace(id string) []Hop {
	r.lock.Lock()
	defer r.lock.Unlock()

	var out []Hop

	h, ok := r.byID[id]
	for ok {
		out = append(out, h)
		h, ok = r.byID[h.ParentID]
	}

	return out
}

// Flush flushes the writer.
func (r *Recorder) Flush() {
	if r.writer != nil {
		r.writer.Flush()
	}
}
