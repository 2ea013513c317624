// Package hop models the asynchronous hops a callback has crossed.
//
// A Context is created every time a callback is registered through an
// instrumented boundary. It stores the trace of the registration site, already
// joined with the trace of whatever context was active at that time, so that
// reading a context never needs to walk its ancestors.
package hop

// Separator is placed between the traces of two consecutive hops.
const Separator = "----------------------------------------\n"

// A Context is an immutable snapshot of a callback registration site.
type Context struct {
	id     string
	label  string
	class  string
	trace  string
	text   string
	parent *Context
}

// NewContext creates a context for a registration made through the boundary
// named label. trace is the registration site. If parent is not nil, its text
// is appended after a Separator.
func NewContext(id, label, class, trace string, parent *Context) *Context {
	c := &Context{
		id:     id,
		label:  label,
		class:  class,
		trace:  trace,
		text:   trace,
		parent: parent,
	}

	if parent != nil {
		c.text = trace + Separator + parent.text
	}

	return c
}

// ID returns the unique ID of the context.
func (c *Context) ID() string {
	return c.id
}

// Label returns the name of the boundary that created the context.
func (c *Context) Label() string {
	return c.label
}

// Class returns the classification of the boundary that created the context.
func (c *Context) Class() string {
	return c.class
}

// Trace returns the registration-site trace of this hop only.
func (c *Context) Trace() string {
	return c.trace
}

// Text returns the registration-site trace followed by the text of all the
// ancestors.
func (c *Context) Text() string {
	return c.text
}

// Parent returns the context that was active when this context was created.
func (c *Context) Parent() *Context {
	return c.parent
}

// Hops returns the number of hops recorded in the text.
func (c *Context) Hops() int {
	n := 0
	for ctx := c; ctx != nil; ctx = ctx.parent {
		n++
	}

	return n
}
