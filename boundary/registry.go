// Package boundary instruments the functions that register asynchronous
// callbacks.
//
// A boundary function is a func-typed slot: an exported func field of a
// struct reached through a pointer, or a func variable reached through a
// pointer. Installing on a slot replaces it with a wrapper of the same type.
// Every call to the wrapper records the calling site in a hop.Context and
// wraps each callback argument so that the context is active on the hop
// stack while the callback runs.
package boundary

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sarchlab/longstack/hop"
	"github.com/sarchlab/longstack/idgen"
	"github.com/sarchlab/longstack/stacktrace"
)

func init() {
	stacktrace.MarkInternal(
		reflect.TypeOf(installation{}).PkgPath() + ".(*installation).")
}

// slots holds every live installation of every registry, keyed by slot
// address, so that two registries never wrap the same slot.
var slots = struct {
	sync.Mutex
	installations map[any]*installation
}{installations: make(map[any]*installation)}

// A Registry keeps track of installed boundaries so that they can be
// restored.
type Registry struct {
	stack  *hop.Stack
	ids    idgen.IDGenerator
	logger zerolog.Logger

	lock          sync.Mutex
	installations map[any]*installation
}

// DefaultRegistry is the process-wide registry. It pushes onto
// hop.DefaultStack.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a registry. Without options it uses hop.DefaultStack,
// sequential context IDs, and a logger that discards everything.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		stack:         hop.DefaultStack,
		ids:           idgen.NewSequentialGenerator(),
		logger:        zerolog.Nop(),
		installations: make(map[any]*installation),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Stack returns the stack the registry pushes contexts onto.
func (r *Registry) Stack() *hop.Stack {
	return r.stack
}

// Composer returns a composer that reads the registry's stack.
func (r *Registry) Composer() *hop.Composer {
	return hop.NewComposer(stacktrace.Probe{}, r.stack)
}

// Install instruments the func field name of the struct target points to.
// Installing on a slot that is already installed, by this or any other
// registry, does nothing and returns the handle of the existing installation.
func (r *Registry) Install(
	target any,
	name string,
	class Class,
	opts ...Option,
) (*RestoreHandle, error) {
	slot, label, err := lookupField(target, name)
	if err != nil {
		return nil, err
	}

	return r.install(target, slot, name, label, class, opts)
}

// InstallFunc instruments the func variable ptr points to. label names the
// boundary in traces.
func (r *Registry) InstallFunc(
	ptr any,
	label string,
	class Class,
	opts ...Option,
) (*RestoreHandle, error) {
	v := reflect.ValueOf(ptr)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, errors.Wrapf(ErrNotFound, "%T is not a pointer to a func", ptr)
	}

	slot := v.Elem()
	if slot.Kind() != reflect.Func || slot.IsNil() {
		return nil, errors.Wrapf(ErrNotFound, "%s is not callable", label)
	}

	return r.install(ptr, slot, label, label, class, opts)
}

func lookupField(target any, name string) (reflect.Value, string, error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() ||
		v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, "", errors.Wrapf(
			ErrNotFound, "%T is not a pointer to a struct", target)
	}

	st := v.Elem().Type()
	label := fieldLabel(st, name)

	field, ok := st.FieldByName(name)
	if !ok || !field.IsExported() {
		return reflect.Value{}, "", errors.Wrapf(ErrNotFound, "%s", label)
	}

	slot, err := v.Elem().FieldByIndexErr(field.Index)
	if err != nil {
		return reflect.Value{}, "", errors.Wrapf(ErrNotFound, "%s: %v", label, err)
	}

	if slot.Kind() != reflect.Func || slot.IsNil() || !slot.CanSet() {
		return reflect.Value{}, "", errors.Wrapf(
			ErrNotFound, "%s is not callable", label)
	}

	return slot, label, nil
}

func fieldLabel(st reflect.Type, name string) string {
	if st.Name() == "" {
		return fmt.Sprintf("(*%s).%s", st.String(), name)
	}

	return fmt.Sprintf("%s.(*%s).%s", st.PkgPath(), st.Name(), name)
}

func (r *Registry) install(
	target any,
	slot reflect.Value,
	name, label string,
	class Class,
	opts []Option,
) (*RestoreHandle, error) {
	o := installOptions{
		positions: class.DefaultPositions(),
		label:     label,
	}
	for _, opt := range opts {
		opt(&o)
	}

	key := slot.Addr().Interface()

	r.lock.Lock()
	defer r.lock.Unlock()

	slots.Lock()
	defer slots.Unlock()

	if inst, ok := slots.installations[key]; ok {
		r.logger.Debug().
			Str("label", inst.label).
			Bool("same_registry", inst.registry == r).
			Msg("boundary already installed")

		return inst.handle, nil
	}

	positions, err := resolvePositions(slot.Type(), o.positions)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot install on %s", o.label)
	}

	original := reflect.ValueOf(slot.Interface())

	inst := &installation{
		registry:  r,
		key:       key,
		slot:      slot,
		name:      name,
		label:     o.label,
		desc:      Descriptor{Class: class, Positions: o.positions},
		positions: positions,
		original:  original,
		origin:    stacktrace.FuncFrame(original.Pointer(), o.label),
	}
	inst.handle = &RestoreHandle{
		inst:     inst,
		target:   target,
		name:     name,
		original: original.Interface(),
	}
	inst.wrapper = reflect.MakeFunc(slot.Type(), inst.invoke)

	slot.Set(inst.wrapper)
	r.installations[key] = inst
	slots.installations[key] = inst

	r.logger.Debug().
		Str("label", inst.label).
		Str("class", class.String()).
		Ints("positions", positions).
		Msg("boundary installed")

	return inst.handle, nil
}

func resolvePositions(fnType reflect.Type, declared []int) ([]int, error) {
	n := fnType.NumIn()
	seen := make(map[int]bool)
	out := make([]int, 0, len(declared))

	for _, p := range declared {
		idx := p
		if p < 0 {
			idx = n + p
		}

		if idx < 0 || idx >= n {
			return nil, errors.Wrapf(ErrNotCallback,
				"position %d is out of range for %s", p, fnType)
		}

		if fnType.IsVariadic() && idx == n-1 {
			return nil, errors.Wrapf(ErrNotCallback,
				"position %d is the variadic parameter of %s", p, fnType)
		}

		if in := fnType.In(idx); in.Kind() != reflect.Func {
			return nil, errors.Wrapf(ErrNotCallback,
				"parameter %d of %s is %s", idx, fnType, in)
		}

		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}

	if len(out) == 0 {
		return nil, errors.Wrapf(ErrNotCallback, "no callback declared for %s", fnType)
	}

	sort.Ints(out)

	return out, nil
}

// RestoreFunc returns the function that restores the func field name of
// target, or nil if it is not installed. The installation may belong to
// another registry.
func (r *Registry) RestoreFunc(target any, name string) func() {
	slot, _, err := lookupField(target, name)
	if err != nil {
		return nil
	}

	return r.restoreFuncOf(slot)
}

// RestoreFuncOf returns the function that restores the func variable ptr
// points to, or nil if it is not installed.
func (r *Registry) RestoreFuncOf(ptr any) func() {
	v := reflect.ValueOf(ptr)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return nil
	}

	return r.restoreFuncOf(v.Elem())
}

func (r *Registry) restoreFuncOf(slot reflect.Value) func() {
	if !slot.CanAddr() {
		return nil
	}

	slots.Lock()
	inst, ok := slots.installations[slot.Addr().Interface()]
	slots.Unlock()

	if !ok {
		return nil
	}

	return inst.handle.Restore
}

// RestoreAll restores every installed boundary.
func (r *Registry) RestoreAll() {
	r.lock.Lock()
	insts := make([]*installation, 0, len(r.installations))
	for _, inst := range r.installations {
		insts = append(insts, inst)
	}
	r.lock.Unlock()

	for _, inst := range insts {
		r.restore(inst)
	}
}

func (r *Registry) restore(inst *installation) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if inst.restored {
		return
	}

	slots.Lock()
	if slots.installations[inst.key] == inst {
		delete(slots.installations, inst.key)
	}
	slots.Unlock()

	inst.slot.Set(inst.original)
	inst.restored = true
	delete(r.installations, inst.key)

	r.logger.Debug().
		Str("label", inst.label).
		Msg("boundary restored")
}

// Installation describes an installed boundary.
type Installation struct {
	Label     string `json:"label"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	Positions []int  `json:"positions"`
}

// Installed lists the installed boundaries ordered by label.
func (r *Registry) Installed() []Installation {
	r.lock.Lock()
	defer r.lock.Unlock()

	out := make([]Installation, 0, len(r.installations))
	for _, inst := range r.installations {
		out = append(out, Installation{
			Label:     inst.label,
			Name:      inst.name,
			Class:     inst.desc.Class.String(),
			Positions: append([]int(nil), inst.positions...),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})

	return out
}
