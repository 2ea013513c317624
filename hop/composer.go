package hop

// A Probe captures the current trace as text. A skip of 0 starts the trace at
// the caller of Capture.
type Probe interface {
	Capture(skip int) string
}

// A Composer produces the traces seen by calling code.
type Composer struct {
	probe Probe
	stack *Stack
}

// NewComposer creates a composer that splices the probe's output with the
// topmost context of stack.
func NewComposer(probe Probe, stack *Stack) *Composer {
	return &Composer{
		probe: probe,
		stack: stack,
	}
}

// Compose returns the current trace, starting skip frames above the caller,
// followed by the text of the active context if there is one.
func (c *Composer) Compose(skip int) string {
	text := c.probe.Capture(skip + 1)

	top := c.stack.Top()
	if top == nil {
		return text
	}

	return text + Separator + top.Text()
}

// Stack returns the stack the composer reads from.
func (c *Composer) Stack() *Stack {
	return c.stack
}
