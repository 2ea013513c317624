package promise_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/longstack/eventloop"
	"github.com/sarchlab/longstack/promise"
)

var _ = Describe("Promise", func() {
	var (
		loop  *eventloop.Loop
		proto *promise.Prototype
	)

	run := func() {
		Expect(loop.Run(context.Background())).To(Succeed())
	}

	BeforeEach(func() {
		loop = eventloop.New()
		proto = promise.NewPrototype(loop)
	})

	It("should run continuations asynchronously", func() {
		var order []string
		proto.Resolve(1).Then(func(v any) (any, error) {
			order = append(order, "then")
			return nil, nil
		}, nil)
		order = append(order, "sync")

		run()

		Expect(order).To(Equal([]string{"sync", "then"}))
	})

	It("should chain values", func() {
		p := proto.Resolve(1).
			Then(func(v any) (any, error) { return v.(int) + 1, nil }, nil).
			Then(func(v any) (any, error) { return v.(int) * 10, nil }, nil)

		run()

		Expect(p.State()).To(Equal(promise.Fulfilled))
		v, err := p.Value()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(20))
	})

	It("should pass rejections through to a later catch", func() {
		boom := errors.New("boom")
		var caught error

		proto.Reject(boom).
			Then(func(v any) (any, error) { return v, nil }, nil).
			Catch(func(err error) (any, error) {
				caught = err
				return "recovered", nil
			})

		run()

		Expect(caught).To(MatchError(boom))
	})

	It("should reject when a continuation returns an error", func() {
		boom := errors.New("boom")
		p := proto.Resolve(1).Then(func(any) (any, error) { return nil, boom }, nil)

		run()

		Expect(p.State()).To(Equal(promise.Rejected))
		_, err := p.Value()
		Expect(err).To(MatchError(boom))
	})

	It("should settle only once", func() {
		p := proto.New(func(resolve func(any), reject func(error)) {
			resolve("first")
			resolve("second")
			reject(errors.New("late"))
		})

		Expect(p.State()).To(Equal(promise.Fulfilled))
		v, _ := p.Value()
		Expect(v).To(Equal("first"))
	})

	It("should stay pending until resolved", func() {
		var resolve func(any)
		p := proto.New(func(res func(any), _ func(error)) { resolve = res })

		var got any
		p.Then(func(v any) (any, error) {
			got = v
			return nil, nil
		}, nil)
		run()
		Expect(p.State()).To(Equal(promise.Pending))
		Expect(got).To(BeNil())

		loop.SetTimeout(func() { resolve("late") }, 1)
		run()

		Expect(got).To(Equal("late"))
	})

	It("should adopt returned promises", func() {
		inner := proto.New(func(resolve func(any), _ func(error)) {
			loop.SetTimeout(func() { resolve("inner") }, 5)
		})

		p := proto.Resolve(nil).Then(func(any) (any, error) { return inner, nil }, nil)

		run()

		v, err := p.Value()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("inner"))
	})

	It("should adopt rejected promises", func() {
		boom := errors.New("boom")
		p := proto.New(func(resolve func(any), _ func(error)) {
			resolve(proto.Reject(boom))
		})

		run()

		Expect(p.State()).To(Equal(promise.Rejected))
	})

	It("should reject self resolution", func() {
		var p *promise.Promise
		p = proto.Resolve(nil).Then(func(any) (any, error) { return p, nil }, nil)

		run()

		_, err := p.Value()
		Expect(err).To(MatchError(promise.ErrSelfResolution))
	})

	It("should return promises of the same prototype from Resolve", func() {
		p := proto.Resolve(1)

		Expect(proto.Resolve(p)).To(BeIdenticalTo(p))
	})

	It("should route Then and Catch through the prototype", func() {
		calls := 0
		then := proto.Then
		proto.Then = func(
			p *promise.Promise,
			onFulfilled promise.OnFulfilled,
			onRejected promise.OnRejected,
		) *promise.Promise {
			calls++
			return then(p, onFulfilled, onRejected)
		}

		inner := proto.Resolve("inner")
		proto.Resolve(nil).
			Then(func(any) (any, error) { return inner, nil }, nil).
			Catch(func(err error) (any, error) { return nil, err })

		run()

		Expect(calls).To(Equal(2))
	})

	It("should name states", func() {
		Expect(promise.Pending.String()).To(Equal("pending"))
		Expect(promise.Fulfilled.String()).To(Equal("fulfilled"))
		Expect(promise.Rejected.String()).To(Equal("rejected"))
	})
})
