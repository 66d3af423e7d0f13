package vm

import (
	"sync"
	"time"

	"github.com/zboralski/wie/internal/log"
	"go.uber.org/zap"
)

// tickBudget bounds how long a single Tick call may spend stepping tasks
// before returning control to the host event loop (spec §4.1).
const tickBudget = 8 * time.Millisecond

// Executor is a single-threaded cooperative scheduler. It is not safe for
// concurrent use from multiple goroutines — exactly one goroutine (the
// host event loop) should call Tick, Spawn, Sleep, and CurrentTaskID.
type Executor struct {
	mu sync.Mutex // guards the fields below; held only across non-blocking bookkeeping

	tasks   map[TaskID]*task
	order   []TaskID // insertion order, for same-deadline tie-breaking
	lastID  TaskID
	current *TaskID // set only while a task is being polled
}

// New creates an empty executor.
func New() *Executor {
	return &Executor{tasks: make(map[TaskID]*task)}
}

// Spawn inserts a new ready task and returns its id. Safe to call from
// inside a poll (i.e. a task may spawn further tasks).
func (e *Executor) Spawn(poll PollFunc) TaskID {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastID++
	id := e.lastID
	e.tasks[id] = &task{id: id, poll: poll}
	e.order = append(e.order, id)

	if log.L != nil {
		log.L.Debug("task spawned", zap.Uint64("task_id", uint64(id)))
	}

	return id
}

// Sleep records the current task's wake deadline. It must only be called
// from inside that task's poll function.
func (e *Executor) Sleep(until time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		panic("vm: Sleep called outside of a poll")
	}
	t := e.tasks[*e.current]
	t.deadline = until
	t.sleeping = true
}

// CurrentTaskID returns the id of the task currently being polled. Valid
// only during a poll; panics otherwise, matching the Rust original's
// unwrap-on-None discipline (spec §4.1: "valid only during a poll").
func (e *Executor) CurrentTaskID() TaskID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		panic("vm: CurrentTaskID called outside of a poll")
	}
	return *e.current
}

// Len reports the number of live (not yet completed) tasks.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// TaskSnapshot is a point-in-time, read-only view of one live task's
// scheduling state, used by internal/debugrpc's ListTasks RPC.
type TaskSnapshot struct {
	ID       TaskID
	Sleeping bool
	Deadline time.Time
}

// Snapshot returns every live task in scheduling order.
func (e *Executor) Snapshot() []TaskSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]TaskSnapshot, 0, len(e.order))
	for _, id := range e.order {
		t, ok := e.tasks[id]
		if !ok {
			continue
		}
		out = append(out, TaskSnapshot{ID: t.id, Sleeping: t.sleeping, Deadline: t.deadline})
	}
	return out
}

// Tick runs ready tasks until the 8ms wall-clock budget elapses or no
// task can make progress before the next wake deadline (spec §4.1). now
// is the logical time used to decide which sleeping tasks have woken; it
// does not advance during the loop, only real elapsed time does. Tick
// returns the first error surfaced by any task; that task is dropped,
// others continue (spec "Failure semantics").
func (e *Executor) Tick(now time.Time) error {
	wallDeadline := time.Now().Add(tickBudget)

	for {
		if time.Now().After(wallDeadline) {
			return nil
		}

		if !e.anyRunnable(now) {
			return nil
		}

		if err := e.step(now); err != nil {
			return err
		}
	}
}

// anyRunnable reports whether at least one task is not sleeping, or is
// sleeping past a deadline that has already elapsed.
func (e *Executor) anyRunnable(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.tasks) == 0 {
		return false
	}
	for _, id := range e.order {
		t, ok := e.tasks[id]
		if !ok {
			continue
		}
		if !t.sleeping || !now.Before(t.deadline) {
			return true
		}
	}
	return false
}

// step performs one scheduling pass: tasks whose sleep-until has elapsed
// transition to ready, then every ready task is polled exactly once, in
// insertion order, under CurrentTaskID set to that task's id.
func (e *Executor) step(now time.Time) error {
	e.mu.Lock()
	order := append([]TaskID(nil), e.order...)
	e.mu.Unlock()

	var firstErr error
	var nextOrder []TaskID

	for _, id := range order {
		e.mu.Lock()
		t, ok := e.tasks[id]
		if !ok {
			e.mu.Unlock()
			continue
		}
		if t.sleeping && now.Before(t.deadline) {
			e.mu.Unlock()
			nextOrder = append(nextOrder, id)
			continue
		}
		t.sleeping = false
		e.current = &id
		e.mu.Unlock()

		done, err := t.poll()

		e.mu.Lock()
		e.current = nil
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if done || err != nil {
			delete(e.tasks, id)
		} else {
			nextOrder = append(nextOrder, id)
		}
		e.mu.Unlock()
	}

	e.mu.Lock()
	// Keep tasks spawned by a poll during this pass: Spawn appended them
	// to e.order after the snapshot taken above.
	e.order = append(nextOrder, e.order[len(order):]...)
	e.mu.Unlock()

	return firstErr
}
