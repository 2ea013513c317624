package stacktrace

import (
	"strings"
	"sync"
)

var (
	internalLock     sync.RWMutex
	internalPrefixes []string
)

// MarkInternal declares that every function whose name starts with prefix is
// instrumentation and must not appear in captured traces.
func MarkInternal(prefix string) {
	internalLock.Lock()
	defer internalLock.Unlock()

	for _, p := range internalPrefixes {
		if p == prefix {
			return
		}
	}

	internalPrefixes = append(internalPrefixes, prefix)
}

func isInternal(function string) bool {
	internalLock.RLock()
	defer internalLock.RUnlock()

	for _, p := range internalPrefixes {
		if strings.HasPrefix(function, p) {
			return true
		}
	}

	return false
}

// isTrampoline reports frames that only exist because a call went through
// reflection.
func isTrampoline(function string) bool {
	return strings.HasPrefix(function, "reflect.") ||
		strings.HasPrefix(function, "runtime.call") ||
		function == "runtime.reflectcall"
}

// trim removes internal frames and the trampolines adjacent to them.
func trim(frames Trace) Trace {
	drop := make([]bool, len(frames))
	found := false

	for i, f := range frames {
		if isInternal(f.Function) {
			drop[i] = true
			found = true
		}
	}

	if !found {
		return frames
	}

	for i := range frames {
		if !drop[i] || !isInternal(frames[i].Function) {
			continue
		}

		for j := i - 1; j >= 0 && !drop[j] && isTrampoline(frames[j].Function); j-- {
			drop[j] = true
		}

		for j := i + 1; j < len(frames) && isTrampoline(frames[j].Function); j++ {
			drop[j] = true
		}
	}

	out := frames[:0]
	for i, f := range frames {
		if !drop[i] {
			out = append(out, f)
		}
	}

	return out
}
