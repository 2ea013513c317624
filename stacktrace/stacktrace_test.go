package stacktrace

import (
	"reflect"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type relay struct{}

func (relay) wrap(target reflect.Value) reflect.Value {
	return reflect.MakeFunc(target.Type(), func(in []reflect.Value) []reflect.Value {
		return target.Call(in)
	})
}

func init() {
	MarkInternal(reflect.TypeOf(relay{}).PkgPath() + ".relay.")
}

var _ = Describe("Frame", func() {
	It("should render like the panic handler", func() {
		f := Frame{Function: "pkg.(*T).M", File: "/src/pkg/t.go", Line: 12}

		Expect(f.String()).To(Equal("pkg.(*T).M(...)\n\t/src/pkg/t.go:12\n"))
	})

	It("should render unknown parts", func() {
		Expect(Frame{}.String()).To(Equal("<unknown function>\n\t<unknown file>\n"))
	})

	It("should omit a zero line", func() {
		f := Frame{Function: "f", File: "a.go"}

		Expect(f.String()).To(Equal("f(...)\n\ta.go\n"))
	})
})

var _ = Describe("Trace", func() {
	It("should prepend without touching the original", func() {
		t := Trace{{Function: "b"}, {Function: "c"}}

		out := t.Prepend(Frame{Function: "a"})

		Expect(out).To(HaveLen(3))
		Expect(out[0].Function).To(Equal("a"))
		Expect(t[0].Function).To(Equal("b"))
	})
})

var _ = Describe("Capture", func() {
	It("should start at the caller", func() {
		t := Capture(0)

		Expect(t).NotTo(BeEmpty())
		Expect(t[0].Function).To(HavePrefix("github.com/sarchlab/longstack/stacktrace."))
		Expect(t[0].File).To(HaveSuffix("stacktrace_test.go"))
	})

	It("should skip frames", func() {
		inner := func() Trace { return Capture(1) }

		t := inner()

		Expect(t[0].Function).To(Equal(Capture(0)[0].Function))
	})

	It("should not include runtime.goexit", func() {
		t := Capture(0)

		for _, f := range t {
			Expect(f.Function).NotTo(Equal("runtime.goexit"))
		}
	})

	It("should hide internal frames and their reflection trampolines", func() {
		capture := func() Trace { return Capture(0) }
		invoke := func(f func() Trace) Trace { return f() }

		direct := invoke(capture)
		wrapped := relay{}.wrap(reflect.ValueOf(capture)).Interface().(func() Trace)
		viaRelay := invoke(wrapped)

		Expect(Normalize(viaRelay.String())).To(Equal(Normalize(direct.String())))
		Expect(viaRelay.String()).NotTo(ContainSubstring("reflect.makeFuncStub"))
		Expect(viaRelay.String()).NotTo(ContainSubstring("relay.wrap"))
	})
})

var _ = Describe("trim", func() {
	BeforeEach(func() {
		MarkInternal("example.com/hidden.")
	})

	It("should keep traces without internal frames", func() {
		t := Trace{{Function: "a"}, {Function: "reflect.Value.Call"}, {Function: "b"}}

		Expect(trim(t)).To(HaveLen(3))
	})

	It("should drop internal frames with adjacent trampolines only", func() {
		t := Trace{
			{Function: "user.callback"},
			{Function: "runtime.call32"},
			{Function: "reflect.Value.call"},
			{Function: "reflect.Value.Call"},
			{Function: "example.com/hidden.wrap.func1"},
			{Function: "reflect.callReflect"},
			{Function: "reflect.makeFuncStub"},
			{Function: "user.loop"},
			{Function: "reflect.Value.Call"},
			{Function: "user.main"},
		}

		names := []string{}
		for _, f := range trim(t) {
			names = append(names, f.Function)
		}

		Expect(names).To(Equal([]string{
			"user.callback",
			"user.loop",
			"reflect.Value.Call",
			"user.main",
		}))
	})
})

var _ = Describe("Probe", func() {
	It("should capture from its caller", func() {
		text := Probe{}.Capture(0)

		first := strings.SplitN(text, "\n", 2)[0]
		Expect(first).To(HavePrefix("github.com/sarchlab/longstack/stacktrace."))
		Expect(text).NotTo(ContainSubstring("stacktrace.Probe.Capture"))
	})
})

var _ = Describe("FuncFrame", func() {
	It("should locate the function entry", func() {
		f := FuncFrame(reflect.ValueOf(Normalize).Pointer(), "label")

		Expect(f.Function).To(Equal("label"))
		Expect(f.File).To(HaveSuffix("stacktrace.go"))
		Expect(f.Line).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Normalize", func() {
	It("should strip digits", func() {
		Expect(Normalize("a.func12(...)\n\tx.go:31\n")).To(Equal("a.func(...)\n\tx.go:\n"))
	})
})
