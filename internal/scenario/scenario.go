package scenario

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sarchlab/longstack/events"
)

// A Scenario registers callbacks on an Env. The callbacks capture traces
// when the loop runs them.
type Scenario struct {
	Name        string
	Description string
	Setup       func(env *Env) error
}

// ErrUnknown is returned when a scenario name does not exist.
var ErrUnknown = errors.New("unknown scenario")

var all = []Scenario{
	{
		Name:        "then",
		Description: "a continuation registered on a resolved promise",
		Setup:       thenScenario,
	},
	{
		Name:        "emitter",
		Description: "a listener called by a later emit",
		Setup:       emitterScenario,
	},
	{
		Name:        "readfile",
		Description: "the completion of an asynchronous file read",
		Setup:       readFileScenario,
	},
	{
		Name:        "chain",
		Description: "an immediate scheduled from a continuation",
		Setup:       chainScenario,
	},
	{
		Name:        "mixed",
		Description: "a continuation, a next tick and a timeout side by side",
		Setup:       mixedScenario,
	},
	{
		Name:        "nested",
		Description: "three timeouts, each scheduled by the previous one",
		Setup:       nestedScenario,
	},
	{
		Name:        "request",
		Description: "response and data listeners fed by an I/O completion",
		Setup:       requestScenario,
	},
}

// All returns every scenario in display order.
func All() []Scenario {
	return append([]Scenario(nil), all...)
}

// Lookup finds the scenarios with the given names. No names means all.
func Lookup(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}

	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		s, ok := find(name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknown, "%q", name)
		}

		out = append(out, s)
	}

	return out, nil
}

func find(name string) (Scenario, bool) {
	for _, s := range all {
		if s.Name == name {
			return s, true
		}
	}

	return Scenario{}, false
}

// Run sets s up on env and runs the loop until it is idle.
func (e *Env) Run(ctx context.Context, s Scenario) error {
	e.current = s.Name
	defer func() { e.current = "" }()

	if err := s.Setup(e); err != nil {
		return errors.Wrapf(err, "scenario %s", s.Name)
	}

	return errors.Wrapf(e.Loop.Run(ctx), "scenario %s", s.Name)
}

func thenScenario(env *Env) error {
	env.Promises.Resolve("value").Then(func(v any) (any, error) {
		env.Capture("then")
		return v, nil
	}, nil)

	return nil
}

func emitterScenario(env *Env) error {
	e := env.Emitters.NewEmitter()
	e.On("data", func(...any) {
		env.Capture("on")
	})

	env.Loop.SetImmediate(func() {
		e.Emit("data")
	})

	return nil
}

func readFileScenario(env *Env) error {
	path := filepath.Join(env.Dir, "readfile.txt")
	if err := os.WriteFile(path, []byte("longstack"), 0o600); err != nil {
		return errors.Wrap(err, "cannot create input file")
	}

	env.FS.ReadFile(path, func(_ []byte, err error) {
		env.Capture("readfile")
	})

	return nil
}

func chainScenario(env *Env) error {
	env.Promises.Resolve(nil).Then(func(any) (any, error) {
		env.Loop.SetImmediate(func() {
			env.Capture("immediate")
		})

		return nil, nil
	}, nil)

	return nil
}

func mixedScenario(env *Env) error {
	env.Promises.Resolve(nil).Then(func(any) (any, error) {
		env.Capture("then")
		return nil, nil
	}, nil)

	env.Loop.NextTick(func() {
		env.Capture("tick")
	})

	env.Loop.SetTimeout(func() {
		env.Capture("timeout")
	}, 1)

	return nil
}

func nestedScenario(env *Env) error {
	env.Loop.SetTimeout(func() {
		env.Loop.SetTimeout(func() {
			env.Loop.SetTimeout(func() {
				env.Capture("third")
			}, 1)
		}, 1)
	}, 1)

	return nil
}

// requestScenario plays a client request: the response arrives on an I/O
// completion and is delivered through listeners, the way a network client
// emits "response" and then "data".
func requestScenario(env *Env) error {
	path := filepath.Join(env.Dir, "response.txt")
	if err := os.WriteFile(path, []byte("200 OK"), 0o600); err != nil {
		return errors.Wrap(err, "cannot create response file")
	}

	request := env.Emitters.NewEmitter()
	request.On("response", func(args ...any) {
		env.Capture("response")

		res := args[0].(*events.Emitter)
		res.On("data", func(...any) {
			env.Capture("data")
		})
	})

	env.FS.ReadFile(path, func(body []byte, err error) {
		res := env.Emitters.NewEmitter()
		request.Emit("response", res)
		res.Emit("data", body)
	})

	return nil
}
