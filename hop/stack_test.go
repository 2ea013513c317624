package hop

import (
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/longstack/hooking"
)

var _ = ginkgo.Describe("Stack", func() {
	var (
		mockCtrl *gomock.Controller
		s        *Stack
		a, b     *Context
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		s = NewStack()
		a = NewContext("a", "A", "continuation", "a\n", nil)
		b = NewContext("b", "B", "subscription", "b\n", nil)
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should be empty at start", func() {
		Expect(s.Top()).To(BeNil())
		Expect(s.Depth()).To(Equal(0))
		Expect(s.Pop()).To(BeNil())
	})

	ginkgo.It("should nest pushes", func() {
		s.Push(a)
		s.Push(b)

		Expect(s.Top()).To(BeIdenticalTo(b))
		Expect(s.Snapshot()).To(Equal([]*Context{b, a}))
		Expect(s.Pop()).To(BeIdenticalTo(b))
		Expect(s.Top()).To(BeIdenticalTo(a))
		Expect(s.Pop()).To(BeIdenticalTo(a))
		Expect(s.Top()).To(BeNil())
	})

	ginkgo.It("should allow the same context to be pushed again", func() {
		s.Push(a)
		s.Push(a)

		Expect(s.Depth()).To(Equal(2))
		s.Pop()
		Expect(s.Top()).To(BeIdenticalTo(a))
	})

	ginkgo.It("should invoke hooks on push and pop", func() {
		hook := NewMockHook(mockCtrl)
		s.AcceptHook(hook)

		push := hook.EXPECT().Func(hooking.HookCtx{
			Domain: s, Pos: HookPosPush, Item: a, Detail: 1,
		})
		hook.EXPECT().Func(hooking.HookCtx{
			Domain: s, Pos: HookPosPop, Item: a, Detail: 0,
		}).After(push)

		s.Push(a)
		s.Pop()
	})

	ginkgo.It("should not invoke hooks when popping an empty stack", func() {
		hook := NewMockHook(mockCtrl)
		s.AcceptHook(hook)

		Expect(s.Pop()).To(BeNil())
	})
})
