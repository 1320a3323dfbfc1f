package broadcast

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestHub(buffer int) *Hub {
	return &Hub{
		topics: make(map[string]*topic),
		buffer: buffer,
		logger: zap.NewNop(),
	}
}

func recv(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func drainPresence(t *testing.T, sub *Subscription, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if ev := recv(t, sub); ev.Kind != KindPresence {
			t.Fatalf("expected presence event, got %+v", ev)
		}
	}
}

func TestHubSubscriberSeesOwnJoin(t *testing.T) {
	hub := newTestHub(4)
	sub := hub.Subscribe("item-1", "Alice Carver")

	ev := recv(t, sub)
	if ev.Kind != KindPresence || ev.Action != ActionJoined || ev.WatcherName != "Alice Carver" {
		t.Fatalf("expected own join announcement, got %+v", ev)
	}
	if ev.Notice == "" {
		t.Fatal("expected a human-readable notice")
	}
}

func TestHubFanout(t *testing.T) {
	hub := newTestHub(8)
	a := hub.Subscribe("item-1", "a")
	drainPresence(t, a, 1)
	b := hub.Subscribe("item-1", "b")
	drainPresence(t, a, 1)
	drainPresence(t, b, 1)

	published := NewBidEvent("item-1", BidInfo{ID: "bid-1", BidderName: "a", Amount: 100})
	hub.Publish("item-1", published)

	for _, sub := range []*Subscription{a, b} {
		ev := recv(t, sub)
		if ev.Kind != KindBid || ev.Bid == nil || ev.Bid.ID != "bid-1" {
			t.Fatalf("expected bid event, got %+v", ev)
		}
	}
}

func TestHubPerTopicOrdering(t *testing.T) {
	hub := newTestHub(16)
	sub := hub.Subscribe("item-1", "a")
	drainPresence(t, sub, 1)

	for i := 0; i < 5; i++ {
		hub.Publish("item-1", NewBidEvent("item-1", BidInfo{Amount: int64(100 + i)}))
	}
	for i := 0; i < 5; i++ {
		ev := recv(t, sub)
		if ev.Bid.Amount != int64(100+i) {
			t.Fatalf("event %d out of order: got amount %d", i, ev.Bid.Amount)
		}
	}
}

func TestHubTopicsAreIndependent(t *testing.T) {
	hub := newTestHub(4)
	a := hub.Subscribe("item-1", "a")
	drainPresence(t, a, 1)
	b := hub.Subscribe("item-2", "b")
	drainPresence(t, b, 1)

	hub.Publish("item-1", NewBidEvent("item-1", BidInfo{ID: "bid-1"}))

	if ev := recv(t, a); ev.Bid == nil || ev.Bid.ID != "bid-1" {
		t.Fatalf("expected bid on item-1, got %+v", ev)
	}
	select {
	case ev := <-b.C:
		t.Fatalf("item-2 watcher received foreign event: %+v", ev)
	default:
	}
}

func TestHubLateJoinerMissesPriorEvents(t *testing.T) {
	hub := newTestHub(4)
	early := hub.Subscribe("item-1", "early")
	drainPresence(t, early, 1)

	hub.Publish("item-1", NewBidEvent("item-1", BidInfo{ID: "bid-1"}))

	late := hub.Subscribe("item-1", "late")
	drainPresence(t, late, 1)

	if ev := recv(t, early); ev.Kind != KindBid {
		t.Fatalf("early watcher expected the bid first, got %+v", ev)
	}
	if ev := recv(t, early); ev.Kind != KindPresence || ev.Action != ActionJoined {
		t.Fatalf("early watcher expected join announcement, got %+v", ev)
	}
	select {
	case ev := <-late.C:
		t.Fatalf("late joiner replayed history: %+v", ev)
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := newTestHub(4)
	a := hub.Subscribe("item-1", "a")
	drainPresence(t, a, 1)
	b := hub.Subscribe("item-1", "b")
	drainPresence(t, a, 1)
	drainPresence(t, b, 1)

	hub.Unsubscribe(b)

	if _, ok := <-b.C; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
	if ev := recv(t, a); ev.Action != ActionLeft || ev.WatcherName != "b" {
		t.Fatalf("expected leave announcement, got %+v", ev)
	}
	if got := hub.SubscriberCount("item-1"); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	// Double unsubscribe is a no-op.
	hub.Unsubscribe(b)
}

func TestHubReapsEmptyTopics(t *testing.T) {
	hub := newTestHub(4)
	sub := hub.Subscribe("item-1", "a")
	hub.Unsubscribe(sub)

	hub.mu.Lock()
	_, alive := hub.topics["item-1"]
	hub.mu.Unlock()
	if alive {
		t.Fatal("expected empty topic to be reaped")
	}
	if got := hub.SubscriberCount("item-1"); got != 0 {
		t.Fatalf("expected 0 subscribers, got %d", got)
	}
}

func TestHubDropsOnFullBuffer(t *testing.T) {
	hub := newTestHub(1)
	sub := hub.Subscribe("item-1", "slow")
	// Buffer of one now holds the join announcement; further publishes drop.

	hub.Publish("item-1", NewBidEvent("item-1", BidInfo{ID: "dropped"}))
	hub.Publish("item-1", NewBidEvent("item-1", BidInfo{ID: "also-dropped"}))

	if ev := recv(t, sub); ev.Kind != KindPresence {
		t.Fatalf("expected buffered join, got %+v", ev)
	}
	select {
	case ev := <-sub.C:
		t.Fatalf("expected overflow events dropped, got %+v", ev)
	default:
	}

	// The watcher stays subscribed; a publish after draining is delivered.
	hub.Publish("item-1", NewBidEvent("item-1", BidInfo{ID: "delivered"}))
	if ev := recv(t, sub); ev.Bid == nil || ev.Bid.ID != "delivered" {
		t.Fatalf("expected delivery after drain, got %+v", ev)
	}
}

func TestHubSubscribeNeverLandsOnReapedTopic(t *testing.T) {
	hub := newTestHub(4)
	first := hub.Subscribe("item-1", "a")
	stale := hub.topic("item-1", false)
	hub.Unsubscribe(first)

	if !stale.dead {
		t.Fatal("expected reaped topic to be marked dead")
	}

	sub := hub.Subscribe("item-1", "b")
	drainPresence(t, sub, 1)

	hub.Publish("item-1", NewBidEvent("item-1", BidInfo{ID: "bid-1"}))
	if ev := recv(t, sub); ev.Kind != KindBid || ev.Bid == nil || ev.Bid.ID != "bid-1" {
		t.Fatalf("expected bid delivery to the new watcher, got %+v", ev)
	}
	if got := hub.SubscriberCount("item-1"); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	stale.mu.Lock()
	leaked := len(stale.subs)
	stale.mu.Unlock()
	if leaked != 0 {
		t.Fatalf("dead topic retained %d subscribers", leaked)
	}
}

func TestHubSubscribeUnsubscribeChurn(t *testing.T) {
	hub := newTestHub(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				sub := hub.Subscribe("item-1", "w")
				hub.Unsubscribe(sub)
			}
		}()
	}
	wg.Wait()

	sub := hub.Subscribe("item-1", "last")
	drainPresence(t, sub, 1)

	hub.Publish("item-1", NewBidEvent("item-1", BidInfo{ID: "bid-1"}))
	if ev := recv(t, sub); ev.Kind != KindBid {
		t.Fatalf("expected bid delivery after churn, got %+v", ev)
	}
	if got := hub.SubscriberCount("item-1"); got != 1 {
		t.Fatalf("expected 1 subscriber after churn, got %d", got)
	}
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := newTestHub(4)
	// Must not panic or create a topic.
	hub.Publish("item-1", NewBidEvent("item-1", BidInfo{ID: "bid-1"}))
	if got := hub.SubscriberCount("item-1"); got != 0 {
		t.Fatalf("expected no subscribers, got %d", got)
	}
}
