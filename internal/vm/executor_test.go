package vm

import (
	"testing"
	"time"
)

// TestCooperativeYield replicates the cooperative yield scenario: task A
// sleeps until now+5ms, task B sleeps until now+10ms. A tick at now+5ms
// completes A; a second tick at now+10ms completes B. Two ticks total.
func TestCooperativeYield(t *testing.T) {
	e := New()
	now := time.Now()

	var aDone, bDone bool

	aFirst := true
	e.Spawn(func() (bool, error) {
		if aFirst {
			aFirst = false
			e.Sleep(now.Add(5 * time.Millisecond))
			return false, nil
		}
		aDone = true
		return true, nil
	})

	bFirst := true
	e.Spawn(func() (bool, error) {
		if bFirst {
			bFirst = false
			e.Sleep(now.Add(10 * time.Millisecond))
			return false, nil
		}
		bDone = true
		return true, nil
	})

	if err := e.Tick(now); err != nil {
		t.Fatalf("initial tick: %v", err)
	}
	if aDone || bDone {
		t.Fatalf("no task should complete before its deadline")
	}

	if err := e.Tick(now.Add(5 * time.Millisecond)); err != nil {
		t.Fatalf("tick at +5ms: %v", err)
	}
	if !aDone {
		t.Fatalf("task A should be done after tick at +5ms")
	}
	if bDone {
		t.Fatalf("task B should not be done yet")
	}

	if err := e.Tick(now.Add(10 * time.Millisecond)); err != nil {
		t.Fatalf("tick at +10ms: %v", err)
	}
	if !bDone {
		t.Fatalf("task B should be done after tick at +10ms")
	}

	if e.Len() != 0 {
		t.Fatalf("executor should have no live tasks left, got %d", e.Len())
	}
}

// TestSpawnFromInsidePoll verifies a task may spawn another task during
// its own poll, and the new task is scheduled on a later tick.
func TestSpawnFromInsidePoll(t *testing.T) {
	e := New()
	now := time.Now()

	var childRan bool
	e.Spawn(func() (bool, error) {
		e.Spawn(func() (bool, error) {
			childRan = true
			return true, nil
		})
		return true, nil
	})

	if err := e.Tick(now); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if childRan {
		t.Fatalf("child should not run in the same step it was spawned")
	}

	if err := e.Tick(now); err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	if !childRan {
		t.Fatalf("child should have run by the second tick")
	}
}

// TestTaskErrorDropsOnlyThatTask verifies a failing task is removed and
// its error surfaces, while sibling tasks keep running.
func TestTaskErrorDropsOnlyThatTask(t *testing.T) {
	e := New()
	now := time.Now()

	wantErr := errFailingTask{}
	e.Spawn(func() (bool, error) {
		return false, wantErr
	})

	var okRan bool
	e.Spawn(func() (bool, error) {
		okRan = true
		return true, nil
	})

	err := e.Tick(now)
	if err != wantErr {
		t.Fatalf("Tick error = %v, want %v", err, wantErr)
	}
	if !okRan {
		t.Fatalf("sibling task should still have run")
	}
	if e.Len() != 0 {
		t.Fatalf("both tasks should be gone (one failed, one completed), got %d", e.Len())
	}
}

type errFailingTask struct{}

func (errFailingTask) Error() string { return "failing task" }

// TestCurrentTaskIDDuringPoll verifies CurrentTaskID resolves to the id
// handed back by Spawn while that task is being polled.
func TestCurrentTaskIDDuringPoll(t *testing.T) {
	e := New()
	now := time.Now()

	var id TaskID
	var seen TaskID
	id = e.Spawn(func() (bool, error) {
		seen = e.CurrentTaskID()
		return true, nil
	})

	if err := e.Tick(now); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if seen != id {
		t.Fatalf("CurrentTaskID = %d, want %d", seen, id)
	}
}

// TestCurrentTaskIDPanicsOutsidePoll verifies the out-of-poll contract.
func TestCurrentTaskIDPanicsOutsidePoll(t *testing.T) {
	e := New()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic calling CurrentTaskID outside a poll")
		}
	}()
	e.CurrentTaskID()
}

// TestSnapshotReportsSleepState verifies Snapshot reflects a task's
// current sleeping flag without removing it from the executor.
func TestSnapshotReportsSleepState(t *testing.T) {
	e := New()
	now := time.Now()

	id := e.Spawn(func() (bool, error) {
		e.Sleep(now.Add(time.Hour))
		return false, nil
	})

	if err := e.Tick(now); err != nil {
		t.Fatalf("tick: %v", err)
	}

	snap := e.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot returned %d tasks, want 1", len(snap))
	}
	if snap[0].ID != id {
		t.Fatalf("Snapshot()[0].ID = %d, want %d", snap[0].ID, id)
	}
	if !snap[0].Sleeping {
		t.Fatalf("Snapshot()[0].Sleeping = false, want true")
	}
}
