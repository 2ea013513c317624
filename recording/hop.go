// Package recording stores the hops activated on a hop.Stack.
package recording

// Hop is one activation of a callback context.
type Hop struct {
	ContextID string
	ParentID  string
	Label     string
	Class     string
	Depth     int
	Time      float64
}

// Writer stores hops.
type Writer interface {
	// Init prepares the backing storage.
	Init()

	// Write buffers a hop.
	Write(h Hop)

	// Flush writes all buffered hops.
	Flush()
}

type multiWriter []Writer

// MultiWriter creates a writer that duplicates every call to all of ws.
func MultiWriter(ws ...Writer) Writer {
	return multiWriter(append([]Writer(nil), ws...))
}

func (m multiWriter) Init() {
	for _, w := range m {
		w.Init()
	}
}

func (m multiWriter) Write(h Hop) {
	for _, w := range m {
		w.Write(h)
	}
}

func (m multiWriter) Flush() {
	for _, w := range m {
		w.Flush()
	}
}
