package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *TimerManager {
	t.Helper()
	m := NewTimerManager(5 * time.Millisecond)
	t.Cleanup(m.Stop)
	return m
}

func TestTimerManager_OneShot(t *testing.T) {
	m := newTestManager(t)
	fired := make(chan struct{}, 2)

	m.AddTimer(20*time.Millisecond, 0, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("one-shot timer did not fire")
	}

	select {
	case <-fired:
		t.Fatal("one-shot timer fired twice")
	case <-time.After(100 * time.Millisecond):
	}

	if m.Len() != 0 {
		t.Errorf("Expected no pending timers, got %d", m.Len())
	}
}

func TestTimerManager_Interval(t *testing.T) {
	m := newTestManager(t)
	var count int32

	id := m.AddTimer(10*time.Millisecond, 10*time.Millisecond, func() { atomic.AddInt32(&count, 1) })

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&count) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected at least 3 ticks, got %d", atomic.LoadInt32(&count))
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.RemoveTimer(id)
	time.Sleep(30 * time.Millisecond)
	after := atomic.LoadInt32(&count)
	time.Sleep(80 * time.Millisecond)
	if got := atomic.LoadInt32(&count); got != after {
		t.Errorf("Timer kept firing after removal: %d -> %d", after, got)
	}
}

func TestTimerManager_RemoveBeforeFire(t *testing.T) {
	m := newTestManager(t)
	var fired int32

	id := m.AddTimer(50*time.Millisecond, 0, func() { atomic.StoreInt32(&fired, 1) })
	m.RemoveTimer(id)
	m.RemoveTimer(id) // no-op

	time.Sleep(120 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Error("Removed timer should not fire")
	}
}

func TestTimerManager_Ordering(t *testing.T) {
	m := newTestManager(t)
	order := make(chan int, 2)

	m.AddTimer(60*time.Millisecond, 0, func() { order <- 2 })
	m.AddTimer(10*time.Millisecond, 0, func() { order <- 1 })

	for _, want := range []int{1, 2} {
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("Expected timer %d, got %d", want, got)
			}
		case <-time.After(time.Second):
			t.Fatal("timer did not fire")
		}
	}
}

func TestTimerManager_Stop(t *testing.T) {
	m := NewTimerManager(5 * time.Millisecond)
	var fired int32
	m.AddTimer(40*time.Millisecond, 0, func() { atomic.StoreInt32(&fired, 1) })
	m.Stop()
	m.Stop()

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Error("Timer should not fire after Stop")
	}
}
