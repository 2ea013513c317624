// Package scenario holds the demonstration programs run by the longstack
// command.
package scenario

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/sarchlab/longstack/boundary"
	"github.com/sarchlab/longstack/eventloop"
	"github.com/sarchlab/longstack/events"
	"github.com/sarchlab/longstack/fsio"
	"github.com/sarchlab/longstack/hop"
	"github.com/sarchlab/longstack/promise"
)

// A Capture is a trace taken inside a callback.
type Capture struct {
	Scenario string
	Name     string
	Trace    string
}

// Env is a loop with its promise, event and file runtimes, all instrumented
// through one registry.
type Env struct {
	Loop     *eventloop.Loop
	Promises *promise.Prototype
	Emitters *events.Prototype
	FS       *fsio.FS
	Dir      string

	registry *boundary.Registry
	composer *hop.Composer
	out      io.Writer
	current  string
	captures []Capture
	handles  []*boundary.RestoreHandle
}

type slot struct {
	target any
	name   string
	class  boundary.Class
}

// NewEnv creates an environment whose boundaries are installed on registry.
// Traces are printed to out. dir is where the file scenarios create files.
func NewEnv(registry *boundary.Registry, out io.Writer, dir string) (*Env, error) {
	loop := eventloop.New()
	env := &Env{
		Loop:     loop,
		Promises: promise.NewPrototype(loop),
		Emitters: events.NewPrototype(),
		FS:       fsio.New(loop),
		Dir:      dir,
		registry: registry,
		composer: registry.Composer(),
		out:      out,
	}

	slots := []slot{
		{loop, "SetTimeout", boundary.ScheduledCallback},
		{loop, "SetImmediate", boundary.ScheduledCallback},
		{loop, "NextTick", boundary.ScheduledCallback},
		{loop, "QueueMicrotask", boundary.ScheduledCallback},
		{env.Promises, "Then", boundary.Continuation},
		{env.Emitters, "On", boundary.Subscription},
		{env.FS, "ReadFile", boundary.CompletionCallback},
		{env.FS, "WriteFile", boundary.CompletionCallback},
		{env.FS, "Stat", boundary.CompletionCallback},
	}

	for _, s := range slots {
		h, err := registry.Install(s.target, s.name, s.class)
		if err != nil {
			env.Restore()
			return nil, errors.Wrap(err, "cannot set up scenario environment")
		}

		env.handles = append(env.handles, h)
	}

	return env, nil
}

// Restore removes the instrumentation installed by NewEnv.
func (e *Env) Restore() {
	for _, h := range e.handles {
		h.Restore()
	}

	e.handles = nil
}

// Capture records and prints the composed trace of its caller.
func (e *Env) Capture(name string) {
	c := Capture{
		Scenario: e.current,
		Name:     name,
		Trace:    e.composer.Compose(1),
	}
	e.captures = append(e.captures, c)

	fmt.Fprintf(e.out, "=== %s: %s\n%s\n", c.Scenario, c.Name, c.Trace)
}

// Captures returns every trace captured so far.
func (e *Env) Captures() []Capture {
	return append([]Capture(nil), e.captures...)
}
