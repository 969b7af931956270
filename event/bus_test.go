package event

import (
	"sync"
	"testing"
	"time"
)

type testEvent struct{ n int }

func TestDispatchLastNonNoneWins(t *testing.T) {
	b := NewBus(nil)
	On(b, false, func(e testEvent) (string, bool) { return "A", true })
	On(b, false, func(e testEvent) (string, bool) { return "", false })
	On(b, false, func(e testEvent) (string, bool) { return "B", true })

	got, ok := Dispatch[testEvent, string](b, testEvent{n: 1})
	if !ok || got != "B" {
		t.Fatalf("got (%q, %v), want (\"B\", true)", got, ok)
	}
}

func TestLazyListenersDontBlockDispatch(t *testing.T) {
	b := NewBus(nil)
	release := make(chan struct{})
	var ran sync.WaitGroup
	ran.Add(1)

	On(b, true, func(e testEvent) (struct{}, bool) {
		defer ran.Done()
		<-release // would hang forever if Dispatch waited on it
		return struct{}{}, false
	})
	On(b, false, func(e testEvent) (int, bool) { return e.n * 2, true })

	done := make(chan struct{})
	go func() {
		Dispatch[testEvent, int](b, testEvent{n: 21})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a lazy listener")
	}
	close(release)
	ran.Wait()
}

func TestDispatchNoListeners(t *testing.T) {
	b := NewBus(nil)
	_, ok := Dispatch[testEvent, string](b, testEvent{})
	if ok {
		t.Fatal("expected ok=false with no listeners registered")
	}
}

func TestListenerPanicIsRecovered(t *testing.T) {
	b := NewBus(nil)
	On(b, false, func(e testEvent) (string, bool) { panic("boom") })
	On(b, false, func(e testEvent) (string, bool) { return "after-panic", true })

	got, ok := Dispatch[testEvent, string](b, testEvent{})
	if !ok || got != "after-panic" {
		t.Fatalf("expected dispatch to continue past the panicking listener, got (%q, %v)", got, ok)
	}
}
