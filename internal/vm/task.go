// Package vm implements the cooperative async executor (spec C1) that
// drives every long-running activity in the emulator: the ARM CPU loop,
// WIPI-C native callbacks, and timer callbacks.
//
// The scheduler and every task it hosts run on one goroutine, so tasks
// may freely share state through the system facade without
// synchronization — Go has no Send/Sync marker to enforce this, so it is
// a discipline rather than a compile-time guarantee.
// Go has no native async/await, so a Task here is a poll function
// (analogous to Rust's Future::poll) that the executor calls at most once
// per tick; a task signals completion by returning done=true.
package vm

import "time"

// TaskID is a monotonically increasing, never-reused task identifier
// (spec §3.1).
type TaskID uint64

// PollFunc advances a task by one step. It returns (done, err): done=true
// means the task is complete and will be dropped; done=false means the
// task is still pending and will be polled again on a future tick (after
// the executor has run the wake-deadline check for it).
type PollFunc func() (done bool, err error)

// task is the executor's bookkeeping record for one spawned computation.
type task struct {
	id       TaskID
	poll     PollFunc
	deadline time.Time // zero value means "no deadline, ready now"
	sleeping bool
}
