package buffer

import (
	"testing"
	"time"
)

func TestUnbounded_FIFOOrder(t *testing.T) {
	b := NewUnbounded[int]()
	for i := 0; i < 100; i++ {
		b.Send(i)
	}
	b.Close()

	i := 0
	for got := range b.Receive() {
		if got != i {
			t.Fatalf("got %d at position %d", got, i)
		}
		i++
	}
	if i != 100 {
		t.Fatalf("received %d items, want 100", i)
	}
}

func TestUnbounded_SendNeverBlocks(t *testing.T) {
	b := NewUnbounded[int]()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			b.Send(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send blocked with no consumer")
	}
	b.Stop()
}

func TestUnbounded_CloseDrainsPending(t *testing.T) {
	b := NewUnbounded[string]()
	b.Send("a")
	b.Send("b")
	b.Close()

	// Sends after close are dropped.
	b.Send("c")

	var got []string
	for item := range b.Receive() {
		got = append(got, item)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v, want [a b]", got)
	}
}

func TestUnbounded_StopDiscardsPending(t *testing.T) {
	b := NewUnbounded[int]()
	for i := 0; i < 50; i++ {
		b.Send(i)
	}
	b.Stop()

	// The channel must close even though nothing was consumed. At most the
	// single item already staged for delivery comes through.
	count := 0
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-b.Receive():
			if !ok {
				if count > 1 {
					t.Fatalf("received %d items after stop", count)
				}
				return
			}
			count++
		case <-deadline:
			t.Fatal("channel did not close after Stop")
		}
	}
}

func TestUnbounded_StopIsIdempotent(t *testing.T) {
	b := NewUnbounded[int]()
	b.Send(1)
	b.Stop()
	b.Stop()
	b.Close()

	if b.Len() != 0 {
		t.Fatalf("len = %d after stop", b.Len())
	}
}

func TestUnbounded_CloseIsIdempotent(t *testing.T) {
	b := NewUnbounded[int]()
	b.Close()
	b.Close()

	if _, ok := <-b.Receive(); ok {
		t.Fatal("expected closed channel")
	}
}
