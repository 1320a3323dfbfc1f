package auction

import (
	"context"
	"time"

	"github.com/Additional-Code/gavel/internal/broadcast"
	"github.com/Additional-Code/gavel/internal/entity"
)

// ItemStore is the persistence surface the service needs for items. The bun
// repository satisfies it; tests substitute in-memory fakes.
type ItemStore interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	ListActive(ctx context.Context) ([]entity.Item, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Item, error)
	ListExpired(ctx context.Context, now time.Time) ([]entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
}

// BidStore is the append-only ledger surface.
type BidStore interface {
	Append(ctx context.Context, b *entity.Bid) error
	HighestForItem(ctx context.Context, itemID string) (*entity.Bid, error)
	ListByItem(ctx context.Context, itemID string) ([]entity.Bid, error)
}

// Broadcaster fans accepted bids out to live watchers of an item topic.
type Broadcaster interface {
	Publish(itemID string, ev broadcast.Event)
}
