// Package promise implements deferred values whose continuations run as
// microtasks on an eventloop.Loop.
package promise

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/longstack/eventloop"
)

// State is the settlement state of a promise.
type State int

// The promise states.
const (
	Pending State = iota
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// ErrSelfResolution rejects a promise that was resolved with itself.
var ErrSelfResolution = errors.New("promise resolved with itself")

// OnFulfilled handles the value of a fulfilled promise.
type OnFulfilled = func(v any) (any, error)

// OnRejected handles the reason of a rejected promise.
type OnRejected = func(err error) (any, error)

// A Prototype creates promises that share one Then function.
type Prototype struct {
	// Then registers continuations on p and returns the promise of their
	// result. Either continuation may be nil, in which case the settlement
	// passes through.
	Then func(p *Promise, onFulfilled OnFulfilled, onRejected OnRejected) *Promise

	loop *eventloop.Loop
}

// NewPrototype creates a prototype whose continuations run on loop.
func NewPrototype(loop *eventloop.Loop) *Prototype {
	pr := &Prototype{loop: loop}
	pr.Then = func(p *Promise, onFulfilled OnFulfilled, onRejected OnRejected) *Promise {
		return p.then(onFulfilled, onRejected)
	}

	return pr
}

// New creates a pending promise and calls executor with the functions that
// settle it. Only the first call to either function has an effect.
func (pr *Prototype) New(executor func(resolve func(any), reject func(error))) *Promise {
	p := &Promise{proto: pr}
	resolve, reject := p.resolvingFunctions()
	executor(resolve, reject)

	return p
}

// Resolve returns a promise resolved with v. If v is a promise, it is
// returned as is.
func (pr *Prototype) Resolve(v any) *Promise {
	if p, ok := v.(*Promise); ok && p.proto == pr {
		return p
	}

	p := &Promise{proto: pr}
	p.resolve(v)

	return p
}

// Reject returns a promise rejected with err.
func (pr *Prototype) Reject(err error) *Promise {
	p := &Promise{proto: pr}
	p.reject(err)

	return p
}

type reaction struct {
	child       *Promise
	onFulfilled OnFulfilled
	onRejected  OnRejected
}

// A Promise is a value that becomes available later.
type Promise struct {
	proto     *Prototype
	state     State
	value     any
	reason    error
	reactions []reaction
}

// Then registers continuations through the prototype's Then function.
func (p *Promise) Then(onFulfilled OnFulfilled, onRejected OnRejected) *Promise {
	return p.proto.Then(p, onFulfilled, onRejected)
}

// Catch registers a rejection continuation through the prototype's Then
// function.
func (p *Promise) Catch(onRejected OnRejected) *Promise {
	return p.proto.Then(p, nil, onRejected)
}

// State returns the settlement state.
func (p *Promise) State() State {
	return p.state
}

// Value returns the fulfillment value or the rejection reason.
func (p *Promise) Value() (any, error) {
	return p.value, p.reason
}

func (p *Promise) then(onFulfilled OnFulfilled, onRejected OnRejected) *Promise {
	r := reaction{
		child:       &Promise{proto: p.proto},
		onFulfilled: onFulfilled,
		onRejected:  onRejected,
	}

	if p.state == Pending {
		p.reactions = append(p.reactions, r)
	} else {
		p.schedule(r)
	}

	return r.child
}

func (p *Promise) resolvingFunctions() (func(any), func(error)) {
	done := false

	resolve := func(v any) {
		if done {
			return
		}
		done = true
		p.resolve(v)
	}

	reject := func(err error) {
		if done {
			return
		}
		done = true
		p.reject(err)
	}

	return resolve, reject
}

func (p *Promise) resolve(v any) {
	if p.state != Pending {
		return
	}

	other, ok := v.(*Promise)
	if !ok {
		p.settle(Fulfilled, v, nil)
		return
	}

	if other == p {
		p.settle(Rejected, nil, ErrSelfResolution)
		return
	}

	resolve, reject := p.resolvingFunctions()
	p.proto.loop.EnqueueMicrotask(func() {
		other.then(
			func(v any) (any, error) {
				resolve(v)
				return nil, nil
			},
			func(err error) (any, error) {
				reject(err)
				return nil, nil
			},
		)
	})
}

func (p *Promise) reject(err error) {
	if p.state != Pending {
		return
	}

	p.settle(Rejected, nil, err)
}

func (p *Promise) settle(state State, value any, reason error) {
	p.state = state
	p.value = value
	p.reason = reason

	reactions := p.reactions
	p.reactions = nil

	for _, r := range reactions {
		p.schedule(r)
	}
}

func (p *Promise) schedule(r reaction) {
	state, value, reason := p.state, p.value, p.reason

	p.proto.loop.EnqueueMicrotask(func() {
		switch {
		case state == Fulfilled && r.onFulfilled != nil:
			r.child.settleWith(r.onFulfilled(value))
		case state == Fulfilled:
			r.child.resolve(value)
		case r.onRejected != nil:
			r.child.settleWith(r.onRejected(reason))
		default:
			r.child.reject(reason)
		}
	})
}

func (p *Promise) settleWith(v any, err error) {
	if err != nil {
		p.reject(err)
		return
	}

	p.resolve(v)
}
