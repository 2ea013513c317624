package boundary

import (
	"reflect"

	"github.com/sarchlab/longstack/hop"
	"github.com/sarchlab/longstack/stacktrace"
)

// An installation is the single wrapper that replaces one slot. Every
// function of this type is hidden from captured traces.
type installation struct {
	registry  *Registry
	key       any
	slot      reflect.Value
	name      string
	label     string
	desc      Descriptor
	positions []int
	original  reflect.Value
	wrapper   reflect.Value
	origin    stacktrace.Frame
	handle    *RestoreHandle
	restored  bool
}

func (inst *installation) invoke(args []reflect.Value) []reflect.Value {
	ctx := inst.newContext()

	for _, pos := range inst.positions {
		if args[pos].IsNil() {
			continue
		}

		args[pos] = inst.wrapCallback(ctx, args[pos])
	}

	if inst.original.Type().IsVariadic() {
		return inst.original.CallSlice(args)
	}

	return inst.original.Call(args)
}

func (inst *installation) newContext() *hop.Context {
	trace := stacktrace.Capture(0).Prepend(inst.origin)
	r := inst.registry

	return hop.NewContext(
		r.ids.Generate(),
		inst.label,
		inst.desc.Class.String(),
		trace.String(),
		r.stack.Top(),
	)
}

func (inst *installation) wrapCallback(
	ctx *hop.Context,
	callback reflect.Value,
) reflect.Value {
	stack := inst.registry.stack
	variadic := callback.Type().IsVariadic()

	return reflect.MakeFunc(callback.Type(), func(in []reflect.Value) []reflect.Value {
		stack.Push(ctx)
		defer stack.Pop()

		if variadic {
			return callback.CallSlice(in)
		}

		return callback.Call(in)
	})
}
