// Package event implements the event queue (spec C6): a FIFO of
// redraw/key/timer/notify events produced by the host window and WIPI-C
// timer calls, consumed by the executor tick and by JVM code polling
// getNextEvent.
package event

import (
	"container/list"
	"time"
)

// KeyCode is a closed set of feature-phone key identifiers (spec §4.6).
type KeyCode int

const (
	KeyUp KeyCode = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyOK
	KeyLeftSoftKey
	KeyRightSoftKey
	KeyClear
	KeyCall
	KeyHangup
	KeyVolumeUp
	KeyVolumeDown
	KeyNum0
	KeyNum1
	KeyNum2
	KeyNum3
	KeyNum4
	KeyNum5
	KeyNum6
	KeyNum7
	KeyNum8
	KeyNum9
	KeyHash
	KeyStar
)

var keyNames = map[string]KeyCode{
	"UP": KeyUp, "DOWN": KeyDown, "LEFT": KeyLeft, "RIGHT": KeyRight,
	"OK": KeyOK, "CLR": KeyClear, "CALL": KeyCall, "HANGUP": KeyHangup,
	"0": KeyNum0, "1": KeyNum1, "2": KeyNum2, "3": KeyNum3, "4": KeyNum4,
	"5": KeyNum5, "6": KeyNum6, "7": KeyNum7, "8": KeyNum8, "9": KeyNum9,
	"#": KeyHash, "*": KeyStar,
}

// ParseKeyCode maps a key name (as used in config key remapping) to a
// KeyCode. ok is false for unrecognized names.
func ParseKeyCode(name string) (KeyCode, bool) {
	k, ok := keyNames[name]
	return k, ok
}

// Kind identifies which variant of Event is populated.
type Kind int

const (
	KindRedraw Kind = iota
	KindKeyDown
	KindKeyUp
	KindKeyRepeat
	KindTimer
	KindNotify
)

// TimerCallback is invoked (as a new executor task) when a Timer event's
// due instant has elapsed.
type TimerCallback func() error

// Event is one FIFO entry (spec §4.6).
type Event struct {
	Kind Kind

	Key KeyCode // valid for KindKeyDown/Up/Repeat

	Due      time.Time     // valid for KindTimer
	Callback TimerCallback // valid for KindTimer

	NotifyType int32 // valid for KindNotify
	Param1     int32
	Param2     int32
}

// Redraw builds a redraw event.
func Redraw() Event { return Event{Kind: KindRedraw} }

// KeyDownEvent builds a key-down event.
func KeyDownEvent(k KeyCode) Event { return Event{Kind: KindKeyDown, Key: k} }

// KeyUpEvent builds a key-up event.
func KeyUpEvent(k KeyCode) Event { return Event{Kind: KindKeyUp, Key: k} }

// KeyRepeatEvent builds a key-repeat event.
func KeyRepeatEvent(k KeyCode) Event { return Event{Kind: KindKeyRepeat, Key: k} }

// TimerEvent builds a timer event due at the given instant.
func TimerEvent(due time.Time, cb TimerCallback) Event {
	return Event{Kind: KindTimer, Due: due, Callback: cb}
}

// NotifyEvent builds a WIPI notifyEvent.
func NotifyEvent(typ, p1, p2 int32) Event {
	return Event{Kind: KindNotify, NotifyType: typ, Param1: p1, Param2: p2}
}

// Queue is a FIFO of events (spec §3 / §4.6). Not safe for concurrent
// use; callers serialize access the same way the rest of the runtime
// serializes through the system facade.
type Queue struct {
	items *list.List
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{items: list.New()}
}

// Push appends ev to the back of the queue.
func (q *Queue) Push(ev Event) {
	q.items.PushBack(ev)
}

// Pop removes and returns the front event, if any.
func (q *Queue) Pop() (Event, bool) {
	front := q.items.Front()
	if front == nil {
		return Event{}, false
	}
	q.items.Remove(front)
	return front.Value.(Event), true
}

// Len reports the number of queued events.
func (q *Queue) Len() int { return q.items.Len() }

// DrainDueTimers removes every Timer event whose Due has passed (<= now)
// and returns them in FIFO order, leaving non-timer and not-yet-due
// events in place. Used by the system facade's tick to spawn due timer
// callbacks as tasks (spec §4.10 "system.tick()").
func (q *Queue) DrainDueTimers(now time.Time) []Event {
	var due []Event
	var kept []Event

	for e := q.items.Front(); e != nil; e = e.Next() {
		ev := e.Value.(Event)
		if ev.Kind == KindTimer && !now.Before(ev.Due) {
			due = append(due, ev)
		} else {
			kept = append(kept, ev)
		}
	}

	q.items.Init()
	for _, ev := range kept {
		q.items.PushBack(ev)
	}

	return due
}
