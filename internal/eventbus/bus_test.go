package eventbus

import (
	"testing"
	"time"
)

func TestPublishFanout(t *testing.T) {
	t.Parallel()
	b := New()
	ch1, unsub1 := b.Subscribe(4)
	ch2, unsub2 := b.Subscribe(4)
	defer unsub1()
	defer unsub2()

	b.Publish(Event{Type: "sent", Data: 42})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Type != "sent" || e.Data != 42 {
				t.Fatalf("subscriber %d received %+v", i, e)
			}
			if e.Time.IsZero() {
				t.Fatalf("subscriber %d: Time not stamped", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	t.Parallel()
	b := New()
	_, unsub := b.Subscribe(1) // nobody reading
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: "flood", Data: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestSlowSubscriberKeepsNewest(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: "a"})
	b.Publish(Event{Type: "b"}) // displaces a

	select {
	case e := <-ch:
		if e.Type != "b" {
			t.Fatalf("got %q, want newest event b", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("received nothing")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(4)
	unsub()
	unsub() // idempotent

	b.Publish(Event{Type: "after"})

	if e, ok := <-ch; ok {
		t.Fatalf("received %+v on closed subscription", e)
	}
}
