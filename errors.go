package longstack

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/sarchlab/longstack/boundary"
)

// fundamental is an error that has a message and a long stack.
type fundamental struct {
	msg   string
	stack string
}

// New returns an error with the message msg that records the composed trace
// of the caller.
func New(msg string) error {
	return &fundamental{
		msg:   msg,
		stack: boundary.DefaultRegistry.Composer().Compose(1),
	}
}

// Errorf formats according to a format specifier and returns an error that
// records the composed trace of the caller.
func Errorf(format string, args ...any) error {
	return &fundamental{
		msg:   fmt.Sprintf(format, args...),
		stack: boundary.DefaultRegistry.Composer().Compose(1),
	}
}

func (f *fundamental) Error() string { return f.msg }

// LongStack returns the trace recorded when the error was created.
func (f *fundamental) LongStack() string { return f.stack }

func (f *fundamental) Format(s fmt.State, verb rune) {
	format(s, verb, f.msg, f.stack)
}

type withStack struct {
	error
	stack string
}

// Wrap annotates err with msg and the composed trace of the caller. It
// returns nil if err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}

	return &withStack{
		error: errors.WithMessage(err, msg),
		stack: boundary.DefaultRegistry.Composer().Compose(1),
	}
}

func (w *withStack) Cause() error { return errors.Cause(w.error) }

func (w *withStack) Unwrap() error { return w.error }

// LongStack returns the trace recorded when the error was wrapped.
func (w *withStack) LongStack() string { return w.stack }

func (w *withStack) Format(s fmt.State, verb rune) {
	format(s, verb, w.Error(), w.stack)
}

func format(s fmt.State, verb rune, msg, stack string) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = io.WriteString(s, msg)
			_, _ = io.WriteString(s, "\n")
			_, _ = io.WriteString(s, stack)

			return
		}

		fallthrough
	case 's':
		_, _ = io.WriteString(s, msg)
	case 'q':
		fmt.Fprintf(s, "%q", msg)
	}
}

type longStacker interface {
	LongStack() string
}

// StackOf returns the outermost long stack recorded in the chain of err, or
// an empty string if there is none.
func StackOf(err error) string {
	var ls longStacker
	if errors.As(err, &ls) {
		return ls.LongStack()
	}

	return ""
}
