package hop

import (
	"strings"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Context", func() {
	ginkgo.It("should keep the registration trace as text when it has no parent", func() {
		c := NewContext("1", "Loop.SetTimeout", "scheduled-callback", "a\n", nil)

		Expect(c.ID()).To(Equal("1"))
		Expect(c.Label()).To(Equal("Loop.SetTimeout"))
		Expect(c.Class()).To(Equal("scheduled-callback"))
		Expect(c.Trace()).To(Equal("a\n"))
		Expect(c.Text()).To(Equal("a\n"))
		Expect(c.Parent()).To(BeNil())
		Expect(c.Hops()).To(Equal(1))
	})

	ginkgo.It("should compose with its parent at creation", func() {
		root := NewContext("1", "then", "continuation", "a\n", nil)
		mid := NewContext("2", "immediate", "scheduled-callback", "b\n", root)
		leaf := NewContext("3", "on", "subscription", "c\n", mid)

		Expect(leaf.Text()).To(Equal("c\n" + Separator + "b\n" + Separator + "a\n"))
		Expect(strings.Count(leaf.Text(), Separator)).To(Equal(2))
		Expect(leaf.Hops()).To(Equal(3))
		Expect(leaf.Parent()).To(BeIdenticalTo(mid))
	})

	ginkgo.It("should not be affected by siblings", func() {
		root := NewContext("1", "then", "continuation", "a\n", nil)
		left := NewContext("2", "x", "scheduled-callback", "left\n", root)
		right := NewContext("3", "y", "scheduled-callback", "right\n", root)

		Expect(left.Text()).NotTo(ContainSubstring("right"))
		Expect(right.Text()).NotTo(ContainSubstring("left"))
		Expect(root.Text()).To(Equal("a\n"))
	})

	ginkgo.It("should use a 40 dash separator line", func() {
		Expect(Separator).To(Equal("----------------------------------------\n"))
	})
})
