// Package longstack gives asynchronous callbacks long stack traces.
//
// Install instruments the functions that register callbacks. When such a
// callback later runs, Stack returns the trace of the callback followed by
// the trace of the place where the callback was registered, separated by
// hop.Separator, for as many hops as the callback chain crossed.
//
//	loop := eventloop.New()
//	longstack.Install(loop, "SetTimeout", longstack.ScheduledCallback)
//
//	loop.SetTimeout(func() {
//		fmt.Print(longstack.Stack())
//	}, 1)
package longstack

import (
	"github.com/sarchlab/longstack/boundary"
	"github.com/sarchlab/longstack/hop"
)

// Class classifies a boundary function by the kind of callback it registers.
type Class = boundary.Class

// The boundary classes.
const (
	Continuation       = boundary.Continuation
	Subscription       = boundary.Subscription
	ScheduledCallback  = boundary.ScheduledCallback
	CompletionCallback = boundary.CompletionCallback
)

// Separator is placed between the traces of two consecutive hops.
const Separator = hop.Separator

// Install instruments the func field name of the struct target points to,
// using the default registry.
func Install(
	target any,
	name string,
	class Class,
	opts ...boundary.Option,
) (*boundary.RestoreHandle, error) {
	return boundary.DefaultRegistry.Install(target, name, class, opts...)
}

// InstallFunc instruments the func variable ptr points to, using the default
// registry.
func InstallFunc(
	ptr any,
	label string,
	class Class,
	opts ...boundary.Option,
) (*boundary.RestoreHandle, error) {
	return boundary.DefaultRegistry.InstallFunc(ptr, label, class, opts...)
}

// Restore reverts the installation on the func field name of target. It does
// nothing if the field is not installed.
func Restore(target any, name string) {
	if restore := boundary.DefaultRegistry.RestoreFunc(target, name); restore != nil {
		restore()
	}
}

// RestoreAll reverts every installation of the default registry.
func RestoreAll() {
	boundary.DefaultRegistry.RestoreAll()
}

// Stack returns the composed trace of the caller.
func Stack() string {
	return boundary.DefaultRegistry.Composer().Compose(1)
}
