// Package monitoring serves the state of the instrumentation over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/longstack/boundary"
	"github.com/sarchlab/longstack/idgen"
	"github.com/sarchlab/longstack/recording"
)

// A Clock reports the time of the runtime being monitored.
type Clock interface {
	Now() float64
}

// Monitor turns a process into a server that reports the installed
// boundaries, the active contexts and the recorded hops.
type Monitor struct {
	registry        *boundary.Registry
	recorder        *recording.Recorder
	clock           Clock
	portNumber      int
	profileDuration time.Duration
	ids             idgen.IDGenerator

	progressLock sync.Mutex
	progress     []*Progress
}

// NewMonitor creates a monitor of the default registry.
func NewMonitor() *Monitor {
	return &Monitor{
		registry:        boundary.DefaultRegistry,
		profileDuration: time.Second,
		ids:             idgen.NewXIDGenerator(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithRegistry sets the registry whose installations and stack are reported.
func (m *Monitor) WithRegistry(r *boundary.Registry) *Monitor {
	m.registry = r
	return m
}

// RegisterRecorder sets the recorder that provides the hops.
func (m *Monitor) RegisterRecorder(r *recording.Recorder) {
	m.recorder = r
}

// RegisterClock sets the clock reported by /api/now.
func (m *Monitor) RegisterClock(c Clock) {
	m.clock = c
}

// CreateProgress creates a progress tracker shown by /api/progress.
func (m *Monitor) CreateProgress(name string, total uint64) *Progress {
	p := &Progress{
		ID:        m.ids.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressLock.Lock()
	defer m.progressLock.Unlock()

	m.progress = append(m.progress, p)

	return p
}

// CompleteProgress stops showing p.
func (m *Monitor) CompleteProgress(p *Progress) {
	m.progressLock.Lock()
	defer m.progressLock.Unlock()

	kept := make([]*Progress, 0, len(m.progress))
	for _, q := range m.progress {
		if q != p {
			kept = append(kept, q)
		}
	}

	m.progress = kept
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/installed", m.listInstalled)
	r.HandleFunc("/api/stack", m.listStack)
	r.HandleFunc("/api/hops", m.listHops)
	r.HandleFunc("/api/hops/{id}/backtrace", m.backTrace)
	r.HandleFunc("/api/progress", m.listProgress)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the URL of the
// server.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring long stacks with %s\n", url)

	router := m.Router()
	go func() {
		err := http.Serve(listener, router)
		dieOnErr(err)
	}()

	return url
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := 0.0
	if m.clock != nil {
		now = m.clock.Now()
	}

	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

func (m *Monitor) listInstalled(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.registry.Installed())
}

type contextRsp struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Class string `json:"class"`
	Hops  int    `json:"hops"`
	Trace string `json:"trace"`
}

func (m *Monitor) listStack(w http.ResponseWriter, _ *http.Request) {
	snapshot := m.registry.Stack().Snapshot()

	rsp := make([]contextRsp, 0, len(snapshot))
	for _, c := range snapshot {
		rsp = append(rsp, contextRsp{
			ID:    c.ID(),
			Label: c.Label(),
			Class: c.Class(),
			Hops:  c.Hops(),
			Trace: c.Text(),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) recorderOr404(w http.ResponseWriter) *recording.Recorder {
	if m.recorder == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Hop recording is not enabled"))
		dieOnErr(err)
	}

	return m.recorder
}

func (m *Monitor) listHops(w http.ResponseWriter, _ *http.Request) {
	recorder := m.recorderOr404(w)
	if recorder == nil {
		return
	}

	writeJSON(w, recorder.Recent())
}

func (m *Monitor) backTrace(w http.ResponseWriter, r *http.Request) {
	recorder := m.recorderOr404(w)
	if recorder == nil {
		return
	}

	hops := recorder.BackTrace(mux.Vars(r)["id"])
	if len(hops) == 0 {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Hop not found"))
		dieOnErr(err)

		return
	}

	writeJSON(w, hops)
}

func (m *Monitor) listProgress(w http.ResponseWriter, _ *http.Request) {
	m.progressLock.Lock()
	defer m.progressLock.Unlock()

	rsp := make([]progressRsp, 0, len(m.progress))
	for _, p := range m.progress {
		rsp = append(rsp, p.snapshot())
	}

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
