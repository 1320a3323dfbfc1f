package auction

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/auth"
	"github.com/Additional-Code/gavel/internal/broadcast"
	"github.com/Additional-Code/gavel/internal/entity"
	bidrepo "github.com/Additional-Code/gavel/internal/repository/bid"
	itemrepo "github.com/Additional-Code/gavel/internal/repository/item"
)

type fakeItemStore struct {
	mu         sync.Mutex
	items      map[string]entity.Item
	getCalls   int
	updateErr  map[string]error
	updateHits int
}

func newFakeItemStore(items ...entity.Item) *fakeItemStore {
	s := &fakeItemStore{items: make(map[string]entity.Item)}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeItemStore) Create(_ context.Context, item *entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = *item
	return nil
}

func (s *fakeItemStore) GetByID(_ context.Context, id string) (*entity.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	item, ok := s.items[id]
	if !ok {
		return nil, itemrepo.ErrNotFound
	}
	copied := item
	return &copied, nil
}

func (s *fakeItemStore) ListActive(context.Context) ([]entity.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Item
	for _, item := range s.items {
		if !item.Deleted {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeItemStore) ListByOwner(_ context.Context, ownerID string) ([]entity.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Item
	for _, item := range s.items {
		if !item.Deleted && item.OwnerID == ownerID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeItemStore) ListExpired(_ context.Context, now time.Time) ([]entity.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Item
	for _, item := range s.items {
		if !item.Deleted && item.Status == entity.ItemForSale && !item.EndTime.After(now) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (s *fakeItemStore) Update(_ context.Context, item *entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErr[item.ID]; err != nil {
		return err
	}
	if _, ok := s.items[item.ID]; !ok {
		return itemrepo.ErrNotFound
	}
	s.items[item.ID] = *item
	s.updateHits++
	return nil
}

func (s *fakeItemStore) get(id string) entity.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

type fakeBidStore struct {
	mu        sync.Mutex
	bids      []entity.Bid
	appendErr error
}

func (s *fakeBidStore) Append(_ context.Context, b *entity.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.bids = append(s.bids, *b)
	return nil
}

func (s *fakeBidStore) HighestForItem(_ context.Context, itemID string) (*entity.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *entity.Bid
	for i := range s.bids {
		b := s.bids[i]
		if b.ItemID != itemID {
			continue
		}
		if best == nil || b.Amount > best.Amount ||
			(b.Amount == best.Amount && b.CreatedAt.Before(best.CreatedAt)) {
			copied := b
			best = &copied
		}
	}
	if best == nil {
		return nil, bidrepo.ErrNoBids
	}
	return best, nil
}

func (s *fakeBidStore) ListByItem(_ context.Context, itemID string) ([]entity.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Bid
	for _, b := range s.bids {
		if b.ItemID == itemID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeBidStore) recorded() []entity.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Bid, len(s.bids))
	copy(out, s.bids)
	return out
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (f *fakeBroadcaster) Publish(_ string, ev broadcast.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeBroadcaster) published() []broadcast.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]broadcast.Event, len(f.events))
	copy(out, f.events)
	return out
}

type fakeIdentities struct {
	names map[string]string
}

func (f fakeIdentities) Resolve(_ context.Context, userID string) (auth.Identity, error) {
	if name, ok := f.names[userID]; ok {
		return auth.Identity{ID: userID, Name: name}, nil
	}
	return auth.Identity{ID: userID, Name: userID}, nil
}

func newTestService(items *fakeItemStore, bids *fakeBidStore, at time.Time) (*Service, *fakeBroadcaster) {
	bc := &fakeBroadcaster{}
	seq := 0
	var seqMu sync.Mutex
	svc := &Service{
		items:       items,
		bids:        bids,
		identities:  fakeIdentities{names: map[string]string{"user1": "Alice Carver"}},
		broadcaster: bc,
		logger:      zap.NewNop(),
		locks:       newLockArena(),
		clock:       func() time.Time { return at },
		idgen: func() string {
			seqMu.Lock()
			defer seqMu.Unlock()
			seq++
			return fmt.Sprintf("generated-%d", seq)
		},
		maxMessageLen: 200,
	}
	return svc, bc
}
