package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/longstack/boundary"
	"github.com/sarchlab/longstack/hop"
	"github.com/sarchlab/longstack/recording"
)

type fixedClock float64

func (c fixedClock) Now() float64 { return float64(c) }

type timerHost struct {
	After func(cb func())
}

var _ = Describe("Monitor", func() {
	var (
		m        *Monitor
		registry *boundary.Registry
		stack    *hop.Stack
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		m.Router().ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		stack = hop.NewStack()
		registry = boundary.NewRegistry(boundary.WithStack(stack))
		m = NewMonitor().WithRegistry(registry)
		m.profileDuration = 10 * time.Millisecond
	})

	AfterEach(func() {
		registry.RestoreAll()
	})

	It("should fall back to a random port for reserved ports", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should report the time", func() {
		Expect(get("/api/now").Body.String()).To(Equal(`{"now":0.0000000000}`))

		m.RegisterClock(fixedClock(1.5))
		Expect(get("/api/now").Body.String()).To(Equal(`{"now":1.5000000000}`))
	})

	It("should list installations", func() {
		host := &timerHost{After: func(cb func()) { cb() }}
		_, err := registry.Install(host, "After", boundary.ScheduledCallback)
		Expect(err).NotTo(HaveOccurred())

		rec := get("/api/installed")

		var rsp []boundary.Installation
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("After"))
		Expect(rsp[0].Class).To(Equal("scheduled-callback"))
	})

	It("should list the active contexts", func() {
		host := &timerHost{After: func(cb func()) { cb() }}
		_, err := registry.Install(host, "After", boundary.ScheduledCallback)
		Expect(err).NotTo(HaveOccurred())

		var rsp []contextRsp
		host.After(func() {
			host.After(func() {
				rec := get("/api/stack")
				Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
			})
		})

		Expect(rsp).To(HaveLen(2))
		Expect(rsp[0].Hops).To(Equal(2))
		Expect(rsp[1].Hops).To(Equal(1))
		Expect(rsp[0].Label).To(HaveSuffix("(*timerHost).After"))
		Expect(rsp[0].Trace).To(ContainSubstring(hop.Separator))
	})

	It("should report missing recorders", func() {
		Expect(get("/api/hops").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/hops/1/backtrace").Code).To(Equal(http.StatusNotFound))
	})

	It("should list hops and back traces", func() {
		recorder := recording.NewRecorder(nil)
		stack.AcceptHook(recorder)
		m.RegisterRecorder(recorder)

		parent := hop.NewContext("p", "l", "c", "", nil)
		stack.Push(parent)
		stack.Push(hop.NewContext("q", "l", "c", "", parent))
		stack.Pop()
		stack.Pop()

		var hops []recording.Hop
		Expect(json.Unmarshal(get("/api/hops").Body.Bytes(), &hops)).To(Succeed())
		Expect(hops).To(HaveLen(2))

		var trace []recording.Hop
		rec := get("/api/hops/q/backtrace")
		Expect(json.Unmarshal(rec.Body.Bytes(), &trace)).To(Succeed())
		Expect(trace).To(HaveLen(2))
		Expect(trace[0].ContextID).To(Equal("q"))
		Expect(trace[1].ContextID).To(Equal("p"))

		Expect(get("/api/hops/zzz/backtrace").Code).To(Equal(http.StatusNotFound))
	})

	It("should track progress", func() {
		p := m.CreateProgress("scenarios", 3)
		p.Advance(2)
		p.Advance(5)

		var rsp []progressRsp
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("scenarios"))
		Expect(rsp[0].Finished).To(Equal(uint64(3)))

		m.CompleteProgress(p)
		Expect(get("/api/progress").Body.String()).To(Equal("[]"))
	})

	It("should report resources", func() {
		var rsp resourceRsp
		Expect(json.Unmarshal(get("/api/resource").Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a profile", func() {
		rec := get("/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
	})
})
