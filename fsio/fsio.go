// Package fsio performs file operations off the loop and delivers their
// results to callbacks that run on the loop.
package fsio

import (
	"os"

	"github.com/sarchlab/longstack/eventloop"
)

// FS runs file operations for one loop.
type FS struct {
	// ReadFile reads the file at path and passes its content to cb.
	ReadFile func(path string, cb func(data []byte, err error))
	// WriteFile writes data to the file at path and passes the result to cb.
	WriteFile func(path string, data []byte, cb func(err error))
	// Stat describes the file at path and passes the description to cb.
	Stat func(path string, cb func(info os.FileInfo, err error))

	loop *eventloop.Loop
}

// New creates an FS whose callbacks run on loop.
func New(loop *eventloop.Loop) *FS {
	fs := &FS{loop: loop}

	fs.ReadFile = func(path string, cb func([]byte, error)) {
		fs.readFile(path, cb)
	}
	fs.WriteFile = func(path string, data []byte, cb func(error)) {
		fs.writeFile(path, data, cb)
	}
	fs.Stat = func(path string, cb func(os.FileInfo, error)) {
		fs.stat(path, cb)
	}

	return fs
}

func (fs *FS) readFile(path string, cb func([]byte, error)) {
	fs.async(func() func() {
		data, err := os.ReadFile(path)
		return func() { cb(data, err) }
	})
}

func (fs *FS) writeFile(path string, data []byte, cb func(error)) {
	buf := append([]byte(nil), data...)

	fs.async(func() func() {
		err := os.WriteFile(path, buf, 0o644)
		return func() { cb(err) }
	})
}

func (fs *FS) stat(path string, cb func(os.FileInfo, error)) {
	fs.async(func() func() {
		info, err := os.Stat(path)
		return func() { cb(info, err) }
	})
}

// async runs work on a new goroutine and hands the completion it returns to
// the loop.
func (fs *FS) async(work func() func()) {
	fs.loop.Begin()

	go func() {
		completion := work()
		fs.loop.Complete(completion)
		fs.loop.Done()
	}()
}
