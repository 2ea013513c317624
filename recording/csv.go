package recording

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// CSVWriter writes hops into a CSV file.
type CSVWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer

	hops       []Hop
	bufferSize int
}

// NewCSVWriter creates a CSVWriter that writes to path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the CSV file. If the file already exists, it will be
// overwritten.
func (w *CSVWriter) Init() {
	file, err := os.Create(w.path)
	if err != nil {
		panic(err)
	}
	w.file = file
	w.writer = csv.NewWriter(file)

	w.mustWrite(structs.Names(Hop{}))
	w.writer.Flush()

	atexit.Register(func() {
		w.Close()
	})
}

// Write buffers a hop.
func (w *CSVWriter) Write(h Hop) {
	w.hops = append(w.hops, h)
	if len(w.hops) >= w.bufferSize {
		w.Flush()
	}
}

// Flush writes the buffered hops to the file. It does nothing before Init or
// after Close.
func (w *CSVWriter) Flush() {
	if w.writer == nil {
		return
	}

	for _, h := range w.hops {
		w.mustWrite([]string{
			h.ContextID,
			h.ParentID,
			h.Label,
			h.Class,
			strconv.Itoa(h.Depth),
			strconv.FormatFloat(h.Time, 'f', 10, 64),
		})
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		panic(err)
	}

	w.hops = nil
}

func (w *CSVWriter) mustWrite(record []string) {
	if err := w.writer.Write(record); err != nil {
		panic(err)
	}
}

// Close flushes and closes the file. Closing twice does nothing.
func (w *CSVWriter) Close() {
	if w.file == nil {
		return
	}

	w.Flush()

	err := w.file.Close()
	if err != nil {
		panic(err)
	}

	w.file = nil
	w.writer = nil
}
