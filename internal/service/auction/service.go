package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/auth"
	"github.com/Additional-Code/gavel/internal/broadcast"
	"github.com/Additional-Code/gavel/internal/cache"
	"github.com/Additional-Code/gavel/internal/config"
	"github.com/Additional-Code/gavel/internal/entity"
	"github.com/Additional-Code/gavel/internal/messaging"
	bidrepo "github.com/Additional-Code/gavel/internal/repository/bid"
	itemrepo "github.com/Additional-Code/gavel/internal/repository/item"
	"github.com/Additional-Code/gavel/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/gavel/service/auction")

// Service implements the auction core: item lifecycle, bid validation and
// acceptance, and resolution of expired auctions. All failures are returned
// as typed errorbank values; callers map them to their transport.
type Service struct {
	items       ItemStore
	bids        BidStore
	identities  auth.Provider
	broadcaster Broadcaster
	publisher   messaging.Client
	cache       cache.Store
	cacheTTL    time.Duration
	logger      *zap.Logger

	// locks serializes all writes touching a single item: at most one
	// in-flight bid accept or resolution per item at a time.
	locks *lockArena

	clock func() time.Time
	idgen func() string

	maxMessageLen int
	messaging     messagingConfig
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Items       *itemrepo.Repository
	Bids        *bidrepo.Repository
	Identities  auth.Provider
	Broadcaster *broadcast.Hub
	Publisher   messaging.Client
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		items:         p.Items,
		bids:          p.Bids,
		identities:    p.Identities,
		broadcaster:   p.Broadcaster,
		publisher:     p.Publisher,
		cache:         p.Cache,
		cacheTTL:      p.Config.Cache.DefaultTTL,
		logger:        p.Logger,
		locks:         newLockArena(),
		clock:         func() time.Time { return time.Now().UTC() },
		idgen:         uuid.NewString,
		maxMessageLen: p.Config.Auction.MaxMessageLen,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// PlacedBid is the accepted bid plus the bidder's resolved display name.
type PlacedBid struct {
	entity.Bid
	BidderName string
}

// PlaceBid validates and records a single bid. Preconditions are checked in
// order, each with a distinct failure kind: malformed id (bad request),
// missing or soft-deleted item (not found), closed auction window
// (conflict), and insufficient amount (unprocessable). The highest-bid check
// and the ledger append run under the item's lock so two bids can never be
// accepted against the same stale maximum.
func (s *Service) PlaceBid(ctx context.Context, itemID, bidderID string, amount int64, message string) (*PlacedBid, error) {
	ctx, span := serviceTracer.Start(ctx, "AuctionService.PlaceBid", trace.WithAttributes(
		attribute.String("item.id", itemID),
		attribute.Int64("bid.amount", amount),
	))
	defer span.End()

	if _, err := uuid.Parse(itemID); err != nil {
		return nil, errorbank.BadRequest("invalid item id", errorbank.WithCause(err))
	}
	if s.maxMessageLen > 0 && len([]rune(message)) > s.maxMessageLen {
		return nil, errorbank.BadRequest(fmt.Sprintf("message exceeds %d characters", s.maxMessageLen))
	}

	unlock := s.locks.lock(itemID)
	defer unlock()

	item, err := s.items.GetByID(ctx, itemID)
	if errors.Is(err, itemrepo.ErrNotFound) {
		return nil, errorbank.NotFound("item not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load item", errorbank.WithCause(err))
	}
	if item.Deleted {
		return nil, errorbank.NotFound("item not found")
	}

	now := s.clock()
	if !item.Biddable(now) {
		return nil, errorbank.Conflict("auction closed")
	}

	floor := item.Price
	highest, err := s.bids.HighestForItem(ctx, itemID)
	if err != nil && !errors.Is(err, bidrepo.ErrNoBids) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load highest bid", errorbank.WithCause(err))
	}
	if highest != nil && highest.Amount > floor {
		floor = highest.Amount
	}
	if amount <= floor {
		return nil, errorbank.Unprocessable("bid too low", errorbank.WithDetail("minimum_exclusive", floor))
	}

	bid := &entity.Bid{
		ID:        s.idgen(),
		ItemID:    itemID,
		BidderID:  bidderID,
		Amount:    amount,
		Message:   message,
		CreatedAt: now,
	}
	if err := s.bids.Append(ctx, bid); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to record bid", errorbank.WithCause(err))
	}

	identity, err := s.identities.Resolve(ctx, bidderID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("bidder identity lookup failed", zap.String("bidder_id", bidderID), zap.Error(err))
		}
		identity = auth.Identity{ID: bidderID, Name: bidderID}
	}

	if err := s.storeHighestInCache(ctx, bid); err != nil {
		if s.logger != nil {
			s.logger.Warn("highest-bid cache write failed", zap.String("item_id", itemID), zap.Error(err))
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(itemID, broadcast.NewBidEvent(itemID, broadcast.BidInfo{
			ID:         bid.ID,
			BidderID:   bid.BidderID,
			BidderName: identity.Name,
			Amount:     bid.Amount,
			Message:    bid.Message,
			CreatedAt:  bid.CreatedAt,
		}))
	}

	s.publishBidAccepted(ctx, bid, identity.Name)

	return &PlacedBid{Bid: *bid, BidderName: identity.Name}, nil
}

// ListBids returns an item's full bid history, most recent first. History is
// served for soft-deleted items too; the ledger is retained as audit data.
func (s *Service) ListBids(ctx context.Context, itemID string) ([]entity.Bid, error) {
	ctx, span := serviceTracer.Start(ctx, "AuctionService.ListBids", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	if _, err := uuid.Parse(itemID); err != nil {
		return nil, errorbank.BadRequest("invalid item id", errorbank.WithCause(err))
	}

	bids, err := s.bids.ListByItem(ctx, itemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list bids", errorbank.WithCause(err))
	}
	return bids, nil
}

func (s *Service) highestCacheKey(itemID string) string {
	return fmt.Sprintf("items:%s:highest", itemID)
}

func (s *Service) storeHighestInCache(ctx context.Context, bid *entity.Bid) error {
	if s.cache == nil || bid == nil {
		return nil
	}
	bytes, err := json.Marshal(bid)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.highestCacheKey(bid.ItemID), bytes, s.cacheTTL)
}

func (s *Service) highestFromCache(ctx context.Context, itemID string) (*entity.Bid, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.highestCacheKey(itemID))
	if err != nil {
		return nil, err
	}
	var bid entity.Bid
	if err := json.Unmarshal(bytes, &bid); err != nil {
		return nil, err
	}
	return &bid, nil
}
