package boundary

// A RestoreHandle reverts an installation.
type RestoreHandle struct {
	inst     *installation
	target   any
	name     string
	original any
}

// Restore puts the original function back. Calling it more than once, or
// after the boundary has been restored by other means, does nothing.
func (h *RestoreHandle) Restore() {
	h.inst.registry.restore(h.inst)
}

// Target returns the struct pointer or func pointer that was installed on.
func (h *RestoreHandle) Target() any {
	return h.target
}

// Name returns the name of the installed field, or the label of an installed
// func variable.
func (h *RestoreHandle) Name() string {
	return h.name
}

// Original returns the function the slot held before installation.
func (h *RestoreHandle) Original() any {
	return h.original
}

// Restored reports whether the installation has been reverted.
func (h *RestoreHandle) Restored() bool {
	h.inst.registry.lock.Lock()
	defer h.inst.registry.lock.Unlock()

	return h.inst.restored
}
