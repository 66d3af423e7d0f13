package event

import (
	"testing"
	"time"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	q.Push(KeyDownEvent(KeyOK))
	q.Push(Redraw())
	q.Push(KeyUpEvent(KeyOK))

	ev, ok := q.Pop()
	if !ok || ev.Kind != KindKeyDown || ev.Key != KeyOK {
		t.Fatalf("first pop = %+v, ok=%v", ev, ok)
	}
	ev, ok = q.Pop()
	if !ok || ev.Kind != KindRedraw {
		t.Fatalf("second pop = %+v, ok=%v", ev, ok)
	}
	ev, ok = q.Pop()
	if !ok || ev.Kind != KindKeyUp {
		t.Fatalf("third pop = %+v, ok=%v", ev, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestDrainDueTimersLeavesOtherEventsInPlace(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	var fired []string
	q.Push(Redraw())
	q.Push(TimerEvent(now.Add(-time.Second), func() error {
		fired = append(fired, "a")
		return nil
	}))
	q.Push(KeyDownEvent(KeyClear))
	q.Push(TimerEvent(now.Add(time.Hour), func() error {
		fired = append(fired, "b")
		return nil
	}))

	due := q.DrainDueTimers(now)
	if len(due) != 1 {
		t.Fatalf("len(due) = %d, want 1", len(due))
	}
	if err := due[0].Callback(); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(fired) != 1 || fired[0] != "a" {
		t.Fatalf("fired = %v, want [a]", fired)
	}

	if q.Len() != 3 {
		t.Fatalf("remaining queue length = %d, want 3 (redraw, keydown, future timer)", q.Len())
	}

	ev, _ := q.Pop()
	if ev.Kind != KindRedraw {
		t.Fatalf("first remaining = %+v, want redraw", ev)
	}
	ev, _ = q.Pop()
	if ev.Kind != KindKeyDown {
		t.Fatalf("second remaining = %+v, want keydown", ev)
	}
	ev, _ = q.Pop()
	if ev.Kind != KindTimer {
		t.Fatalf("third remaining = %+v, want timer", ev)
	}
}

func TestParseKeyCode(t *testing.T) {
	cases := map[string]KeyCode{
		"UP": KeyUp, "5": KeyNum5, "#": KeyHash, "*": KeyStar, "CLR": KeyClear,
	}
	for name, want := range cases {
		got, ok := ParseKeyCode(name)
		if !ok || got != want {
			t.Fatalf("ParseKeyCode(%q) = %v, %v; want %v, true", name, got, ok, want)
		}
	}
	if _, ok := ParseKeyCode("NOPE"); ok {
		t.Fatalf("expected ParseKeyCode to fail for unknown name")
	}
}
