package broadcast

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/config"
)

// Kind enumerates broadcast event shapes.
type Kind string

const (
	// KindBid carries a newly accepted bid.
	KindBid Kind = "bid"
	// KindPresence announces a watcher joining or leaving a topic.
	KindPresence Kind = "presence"
)

// Presence actions.
const (
	ActionJoined = "joined"
	ActionLeft   = "left"
)

// BidInfo is the bid payload fanned out to watchers. The resolved display
// name is included so consumers can render "who bid what" without a lookup.
type BidInfo struct {
	ID         string    `json:"id"`
	BidderID   string    `json:"bidderId"`
	BidderName string    `json:"bidderName"`
	Amount     int64     `json:"amount"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Event is a single message delivered to watchers of an item topic.
type Event struct {
	Kind        Kind     `json:"kind"`
	ItemID      string   `json:"itemId"`
	Bid         *BidInfo `json:"bid,omitempty"`
	WatcherName string   `json:"watcherName,omitempty"`
	Action      string   `json:"action,omitempty"`
	Notice      string   `json:"notice,omitempty"`
}

// NewBidEvent builds a bid event for the given item topic.
func NewBidEvent(itemID string, bid BidInfo) Event {
	return Event{Kind: KindBid, ItemID: itemID, Bid: &bid}
}

// Subscription is one watcher's membership in an item topic. Events arrive
// on C until Unsubscribe closes it.
type Subscription struct {
	C <-chan Event

	itemID      string
	watcherName string
	ch          chan Event
}

// ItemID returns the topic the subscription is attached to.
func (s *Subscription) ItemID() string { return s.itemID }

// Hub is an in-process, topic-per-item publish/subscribe fanout. Delivery
// is best-effort: nothing is persisted, late joiners miss prior events, and
// a watcher whose buffer is full has the event dropped rather than
// blocking the publisher. Publish order is preserved within a topic.
type Hub struct {
	mu     sync.Mutex
	topics map[string]*topic
	buffer int
	logger *zap.Logger
}

type topic struct {
	mu   sync.Mutex
	dead bool
	subs map[*Subscription]struct{}
}

// NewHub constructs a Hub with the configured per-watcher send buffer.
func NewHub(cfg config.Config, logger *zap.Logger) *Hub {
	buffer := cfg.Auction.WatchSendBuffer
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		topics: make(map[string]*topic),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a watcher on the item's topic and announces the join
// to every current subscriber, the new watcher included.
func (h *Hub) Subscribe(itemID, watcherName string) *Subscription {
	sub := &Subscription{
		itemID:      itemID,
		watcherName: watcherName,
		ch:          make(chan Event, h.buffer),
	}
	sub.C = sub.ch

	for {
		t := h.topic(itemID, true)
		t.mu.Lock()
		if t.dead {
			// reap removed this entry between the map lookup and the topic
			// lock; a fresh lookup returns the live entry.
			t.mu.Unlock()
			continue
		}
		t.subs[sub] = struct{}{}
		h.deliverLocked(t, Event{
			Kind:        KindPresence,
			ItemID:      itemID,
			WatcherName: watcherName,
			Action:      ActionJoined,
			Notice:      fmt.Sprintf("%s joined the auction", watcherName),
		})
		t.mu.Unlock()

		return sub
	}
}

// Unsubscribe removes the watcher, closes its channel, and announces the
// departure to the remaining subscribers. Safe to call once per subscription.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	t := h.topic(sub.itemID, false)
	if t == nil {
		return
	}

	t.mu.Lock()
	if _, ok := t.subs[sub]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.subs, sub)
	close(sub.ch)
	h.deliverLocked(t, Event{
		Kind:        KindPresence,
		ItemID:      sub.itemID,
		WatcherName: sub.watcherName,
		Action:      ActionLeft,
		Notice:      fmt.Sprintf("%s left the auction", sub.watcherName),
	})
	empty := len(t.subs) == 0
	t.mu.Unlock()

	if empty {
		h.reap(sub.itemID)
	}
}

// Publish delivers the event to every current subscriber of the item topic.
func (h *Hub) Publish(itemID string, ev Event) {
	t := h.topic(itemID, false)
	if t == nil {
		return
	}
	t.mu.Lock()
	h.deliverLocked(t, ev)
	t.mu.Unlock()
}

// SubscriberCount reports the number of watchers on the item topic.
func (h *Hub) SubscriberCount(itemID string) int {
	t := h.topic(itemID, false)
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

func (h *Hub) topic(itemID string, create bool) *topic {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[itemID]
	if !ok && create {
		t = &topic{subs: make(map[*Subscription]struct{})}
		h.topics[itemID] = t
	}
	return t
}

// reap drops the topic if it is still empty; topics are created lazily and
// garbage-collected when the last watcher leaves. The removed entry is marked
// dead under its own lock so a Subscribe that already resolved the pointer
// does not attach to it.
func (h *Hub) reap(itemID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[itemID]
	if !ok {
		return
	}
	t.mu.Lock()
	if len(t.subs) == 0 {
		t.dead = true
		delete(h.topics, itemID)
	}
	t.mu.Unlock()
}

// deliverLocked fans the event out to the topic's subscribers. The caller
// holds the topic lock, which serializes publishes and preserves per-topic
// ordering.
func (h *Hub) deliverLocked(t *topic, ev Event) {
	for sub := range t.subs {
		select {
		case sub.ch <- ev:
		default:
			if h.logger != nil {
				h.logger.Warn("watcher buffer full; event dropped",
					zap.String("item_id", ev.ItemID),
					zap.String("kind", string(ev.Kind)),
				)
			}
		}
	}
}
