// Package stacktrace captures the current goroutine's call stack as text.
//
// Frames that belong to instrumentation are removed from every capture,
// together with the reflection trampolines that sit next to them, so that a
// trace taken through an instrumented call reads exactly like one taken
// without instrumentation.
package stacktrace

import (
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Frame is a single entry in a Trace.
type Frame struct {
	// Function is the fully qualified function name, or empty if unknown.
	Function string
	// File is the source file path, or empty if unknown.
	File string
	// Line is the source line, or zero if unknown.
	Line int
}

// String renders the frame the way the panic handler does.
func (f Frame) String() string {
	var b strings.Builder
	f.writeTo(&b)

	return b.String()
}

func (f Frame) writeTo(b *strings.Builder) {
	if f.Function == "" {
		b.WriteString("<unknown function>")
	} else {
		b.WriteString(f.Function)
		b.WriteString("(...)")
	}

	b.WriteString("\n\t")

	if f.File == "" {
		b.WriteString("<unknown file>")
	} else {
		b.WriteString(f.File)
		if f.Line != 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(f.Line))
		}
	}

	b.WriteByte('\n')
}

// Trace is a captured call stack, innermost frame first.
type Trace []Frame

// String renders all frames, one after another.
func (t Trace) String() string {
	var b strings.Builder
	for _, f := range t {
		f.writeTo(&b)
	}

	return b.String()
}

// Prepend returns a new trace with f in front of t.
func (t Trace) Prepend(f Frame) Trace {
	out := make(Trace, 0, len(t)+1)
	out = append(out, f)

	return append(out, t...)
}

var pcBufPool = sync.Pool{
	New: func() any {
		buf := make([]uintptr, 64)
		return &buf
	},
}

func putPCBuffer(buf *[]uintptr) {
	if len(*buf) <= 1024 {
		pcBufPool.Put(buf)
	}
}

// Capture returns the stack of the calling goroutine. A skip of 0 starts the
// trace at the caller of Capture.
func Capture(skip int) Trace {
	skip += 2 // runtime.Callers and Capture

	pcBuf := pcBufPool.Get().(*[]uintptr)
	defer putPCBuffer(pcBuf)

	var pcs []uintptr
	for {
		n := runtime.Callers(0, *pcBuf)
		if n < len(*pcBuf) {
			pcs = (*pcBuf)[:n]
			break
		}

		*pcBuf = make([]uintptr, 2*len(*pcBuf))
	}

	frames := make(Trace, 0, len(pcs))
	iter := runtime.CallersFrames(pcs)
	for more := true; more; {
		var frame runtime.Frame
		frame, more = iter.Next()

		if skip > 0 {
			skip--
			continue
		}

		if frame.Function == "runtime.goexit" {
			continue
		}

		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
	}

	return trim(frames)
}

// FuncFrame returns a frame labeled with label and located at the entry of
// the function whose code pointer is pc.
func FuncFrame(pc uintptr, label string) Frame {
	f := Frame{Function: label}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return f
	}

	f.File, f.Line = fn.FileLine(fn.Entry())

	return f
}

// Probe captures traces as text. It is the production implementation of the
// probe used by trace composers.
type Probe struct{}

// Capture renders the stack as text. A skip of 0 starts at the caller of
// Capture.
func (Probe) Capture(skip int) string {
	return Capture(skip + 1).String()
}

var digits = regexp.MustCompile(`[0-9]+`)

// Normalize removes every digit from a rendered trace so that traces taken at
// the same site on different lines, or with different closure numbering, can
// be compared.
func Normalize(text string) string {
	return digits.ReplaceAllString(text, "")
}
