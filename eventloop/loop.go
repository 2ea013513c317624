// Package eventloop provides a cooperative, single-goroutine runtime with
// timers, immediates, next-tick and microtask queues, and I/O completions.
//
// The registration calls are func fields so that they can be instrumented.
package eventloop

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/longstack/hooking"
)

// TaskKind names the queue a task came from.
type TaskKind string

// The task kinds reported to hooks.
const (
	TaskTimer      TaskKind = "timer"
	TaskCompletion TaskKind = "completion"
	TaskImmediate  TaskKind = "immediate"
	TaskTick       TaskKind = "tick"
	TaskMicrotask  TaskKind = "microtask"
)

// HookPosBeforeTask is a hook position that triggers before running a task.
var HookPosBeforeTask = &hooking.HookPos{Name: "BeforeTask"}

// HookPosAfterTask is a hook position that triggers after running a task.
var HookPosAfterTask = &hooking.HookPos{Name: "AfterTask"}

// A Loop runs callbacks one after another on the goroutine that calls Run.
//
// Each turn runs the timers that are due, then the I/O completions, then the
// immediates that were queued before the turn. After every callback the
// next-tick queue and then the microtask queue are drained. Virtual time
// jumps to the next timer when nothing else can run.
type Loop struct {
	hooking.HookableBase

	// SetTimeout runs cb once the virtual time has advanced by delay.
	SetTimeout func(cb func(), delay VTimeInSec) TimerID
	// SetImmediate runs cb in the immediate phase of the next turn.
	SetImmediate func(cb func())
	// NextTick runs cb as soon as the current callback returns.
	NextTick func(cb func())
	// QueueMicrotask runs cb after the next-tick queue is empty.
	QueueMicrotask func(cb func())

	timeLock sync.RWMutex
	time     VTimeInSec

	lock        sync.Mutex
	timers      *timerQueue
	active      map[TimerID]*timer
	nextTimerID TimerID
	seq         uint64
	immediates  []func()
	ticks       []func()
	microtasks  []func()

	completionLock sync.Mutex
	completions    []func()
	wake           chan struct{}
	pending        atomic.Int64

	singleRunLock sync.Mutex
}

// New creates a loop at time 0.
func New() *Loop {
	l := &Loop{
		timers: newTimerQueue(),
		active: make(map[TimerID]*timer),
		wake:   make(chan struct{}, 1),
	}

	l.SetTimeout = func(cb func(), delay VTimeInSec) TimerID {
		return l.setTimeout(cb, delay)
	}
	l.SetImmediate = func(cb func()) { l.setImmediate(cb) }
	l.NextTick = func(cb func()) { l.nextTick(cb) }
	l.QueueMicrotask = func(cb func()) { l.EnqueueMicrotask(cb) }

	return l
}

func (l *Loop) setTimeout(cb func(), delay VTimeInSec) TimerID {
	if delay < 0 {
		log.Panic("scheduling a timer with a negative delay")
	}

	now := l.readNow()

	l.lock.Lock()
	defer l.lock.Unlock()

	l.nextTimerID++
	l.seq++
	t := &timer{
		id:   l.nextTimerID,
		time: now + delay,
		seq:  l.seq,
		cb:   cb,
	}
	l.timers.Push(t)
	l.active[t.id] = t

	return t.id
}

// ClearTimeout cancels the timer id. It does nothing if the timer has fired
// or was already cleared.
func (l *Loop) ClearTimeout(id TimerID) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if t, ok := l.active[id]; ok {
		t.cleared = true
		delete(l.active, id)
	}
}

func (l *Loop) setImmediate(cb func()) {
	l.lock.Lock()
	l.immediates = append(l.immediates, cb)
	l.lock.Unlock()
}

func (l *Loop) nextTick(cb func()) {
	l.lock.Lock()
	l.ticks = append(l.ticks, cb)
	l.lock.Unlock()
}

// EnqueueMicrotask adds cb to the microtask queue without going through the
// QueueMicrotask field. Runtimes built on the loop use it for their own
// bookkeeping tasks.
func (l *Loop) EnqueueMicrotask(cb func()) {
	l.lock.Lock()
	l.microtasks = append(l.microtasks, cb)
	l.lock.Unlock()
}

// Begin records that an I/O operation has started. Run does not return while
// operations are pending.
func (l *Loop) Begin() {
	l.pending.Add(1)
}

// Done records that an I/O operation has finished. Call it after handing the
// operation's callback to Complete.
func (l *Loop) Done() {
	if l.pending.Add(-1) < 0 {
		log.Panic("more I/O operations finished than started")
	}

	l.signal()
}

// Pending returns the number of I/O operations that have not finished.
func (l *Loop) Pending() int {
	return int(l.pending.Load())
}

// Complete hands cb to the loop. It is safe to call from any goroutine.
func (l *Loop) Complete(cb func()) {
	l.completionLock.Lock()
	l.completions = append(l.completions, cb)
	l.completionLock.Unlock()

	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) readNow() VTimeInSec {
	l.timeLock.RLock()
	t := l.time
	l.timeLock.RUnlock()

	return t
}

func (l *Loop) writeNow(t VTimeInSec) {
	l.timeLock.Lock()
	l.time = t
	l.timeLock.Unlock()
}

// CurrentTime returns the virtual time of the loop.
func (l *Loop) CurrentTime() VTimeInSec {
	return l.readNow()
}

// Now returns the virtual time of the loop in seconds.
func (l *Loop) Now() float64 {
	return float64(l.readNow())
}

// Run processes callbacks until nothing is scheduled and no I/O operation is
// pending, or until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.singleRunLock.Lock()
	defer l.singleRunLock.Unlock()

	l.drainJobs()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ran := l.runTimers()
		ran = l.runCompletions() || ran
		ran = l.runImmediates() || ran

		if ran {
			continue
		}

		if l.advanceTime() {
			continue
		}

		if !l.hasPendingIO() {
			return nil
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) runTimers() bool {
	now := l.readNow()

	l.lock.Lock()
	limit := l.seq
	l.lock.Unlock()

	ran := false
	for {
		t := l.popDueTimer(now, limit)
		if t == nil {
			return ran
		}

		ran = true
		l.runCallback(TaskTimer, t.cb)
	}
}

func (l *Loop) popDueTimer(now VTimeInSec, limit uint64) *timer {
	l.lock.Lock()
	defer l.lock.Unlock()

	for l.timers.Len() > 0 {
		t := l.timers.Peek()
		if t.time > now || t.seq > limit {
			return nil
		}

		l.timers.Pop()
		if t.cleared {
			continue
		}

		delete(l.active, t.id)

		return t
	}

	return nil
}

func (l *Loop) runCompletions() bool {
	l.completionLock.Lock()
	completions := l.completions
	l.completions = nil
	l.completionLock.Unlock()

	for _, cb := range completions {
		l.runCallback(TaskCompletion, cb)
	}

	return len(completions) > 0
}

func (l *Loop) runImmediates() bool {
	l.lock.Lock()
	immediates := l.immediates
	l.immediates = nil
	l.lock.Unlock()

	for _, cb := range immediates {
		l.runCallback(TaskImmediate, cb)
	}

	return len(immediates) > 0
}

func (l *Loop) advanceTime() bool {
	l.lock.Lock()
	for l.timers.Len() > 0 && l.timers.Peek().cleared {
		l.timers.Pop()
	}

	if l.timers.Len() == 0 {
		l.lock.Unlock()
		return false
	}

	next := l.timers.Peek().time
	l.lock.Unlock()

	if next > l.readNow() {
		l.writeNow(next)
	}

	return true
}

func (l *Loop) hasPendingIO() bool {
	if l.pending.Load() > 0 {
		return true
	}

	l.completionLock.Lock()
	defer l.completionLock.Unlock()

	return len(l.completions) > 0
}

func (l *Loop) runCallback(kind TaskKind, cb func()) {
	l.runTask(kind, cb)
	l.drainJobs()
}

func (l *Loop) drainJobs() {
	for {
		kind, cb := l.nextJob()
		if cb == nil {
			return
		}

		l.runTask(kind, cb)
	}
}

func (l *Loop) nextJob() (TaskKind, func()) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if len(l.ticks) > 0 {
		cb := l.ticks[0]
		l.ticks[0] = nil
		l.ticks = l.ticks[1:]

		return TaskTick, cb
	}

	if len(l.microtasks) > 0 {
		cb := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]

		return TaskMicrotask, cb
	}

	return "", nil
}

func (l *Loop) runTask(kind TaskKind, cb func()) {
	hookCtx := hooking.HookCtx{
		Domain: l,
		Pos:    HookPosBeforeTask,
		Item:   kind,
		Detail: l.readNow(),
	}
	l.InvokeHook(hookCtx)

	cb()

	hookCtx.Pos = HookPosAfterTask
	l.InvokeHook(hookCtx)
}
