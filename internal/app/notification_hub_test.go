package app

import "testing"

func TestHubReplayRespectsCursorAndLimit(t *testing.T) {
	hub := NewNotificationHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish("bot.message", 1, i)
	}
	if hub.BacklogSize() != 3 {
		t.Fatalf("expected history of 3, got %d", hub.BacklogSize())
	}
	replay, _, cancel := hub.Subscribe(3)
	defer cancel()
	if len(replay) != 2 || replay[0].Seq != 4 || replay[1].Seq != 5 {
		t.Fatalf("unexpected replay %+v", replay)
	}
}

func TestHubDeliversLiveEvents(t *testing.T) {
	hub := NewNotificationHub(8)
	_, ch, cancel := hub.Subscribe(0)
	defer cancel()
	hub.Publish("bot.file", 2, "payload")
	ev := <-ch
	if ev.Method != "bot.file" || ev.ChatID != 2 || ev.Seq != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestHubDropsLaggingSubscriber(t *testing.T) {
	hub := NewNotificationHub(1)
	_, ch, cancel := hub.Subscribe(0)
	defer cancel()
	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish("bot.message", 1, i)
	}
	if hub.Subscribers() != 0 {
		t.Fatal("lagging subscriber must be removed")
	}
	n := 0
	for range ch {
		n++
	}
	if n != subscriberBuffer {
		t.Fatalf("expected %d buffered events before close, got %d", subscriberBuffer, n)
	}
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	hub := NewNotificationHub(2)
	_, ch, cancel := hub.Subscribe(0)
	hub.Close()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	cancel()
	_, late, _ := hub.Subscribe(0)
	if _, ok := <-late; ok {
		t.Fatal("subscribe after close must return a closed channel")
	}
}
