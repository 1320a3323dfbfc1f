package auction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/cache"
	"github.com/Additional-Code/gavel/internal/entity"
	bidrepo "github.com/Additional-Code/gavel/internal/repository/bid"
	itemrepo "github.com/Additional-Code/gavel/internal/repository/item"
	"github.com/Additional-Code/gavel/pkg/errorbank"
)

// CreateItemInput carries the fields an owner supplies when listing an item.
type CreateItemInput struct {
	Name    string
	Price   int64
	EndTime time.Time
	OwnerID string
	Image   string
}

// CreateItem lists a new item for sale. Price defaults to zero and the
// status always starts at FOR_SALE.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (*entity.Item, error) {
	ctx, span := serviceTracer.Start(ctx, "AuctionService.CreateItem", trace.WithAttributes(attribute.String("item.owner_id", input.OwnerID)))
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errorbank.BadRequest("item name is required")
	}
	if input.Price < 0 {
		return nil, errorbank.BadRequest("price must not be negative")
	}
	if input.OwnerID == "" {
		return nil, errorbank.BadRequest("owner is required")
	}
	now := s.clock()
	if !input.EndTime.After(now) {
		return nil, errorbank.BadRequest("end time must be in the future")
	}

	item := &entity.Item{
		ID:        s.idgen(),
		Name:      name,
		Price:     input.Price,
		Status:    entity.ItemForSale,
		OwnerID:   input.OwnerID,
		Image:     input.Image,
		EndTime:   input.EndTime,
		CreatedAt: now,
	}
	if err := s.items.Create(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create item", errorbank.WithCause(err))
	}
	return item, nil
}

// ItemDetail pairs an item with its current highest bid, if any.
type ItemDetail struct {
	Item       entity.Item
	HighestBid *entity.Bid
}

// GetItem returns a non-deleted item together with its current highest bid.
// The highest bid is read through the cache on this display path; bid
// acceptance never consults the cache.
func (s *Service) GetItem(ctx context.Context, itemID string) (*ItemDetail, error) {
	ctx, span := serviceTracer.Start(ctx, "AuctionService.GetItem", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	if _, err := uuid.Parse(itemID); err != nil {
		return nil, errorbank.BadRequest("invalid item id", errorbank.WithCause(err))
	}

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

	highest, err := s.highestFromCache(ctx, itemID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("highest-bid cache read failed", zap.String("item_id", itemID), zap.Error(err))
		}
		highest, err = s.bids.HighestForItem(ctx, itemID)
		if errors.Is(err, bidrepo.ErrNoBids) {
			highest = nil
		} else if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to load highest bid", errorbank.WithCause(err))
		}
		if highest != nil {
			if cacheErr := s.storeHighestInCache(ctx, highest); cacheErr != nil && s.logger != nil {
				s.logger.Warn("highest-bid cache write failed", zap.String("item_id", itemID), zap.Error(cacheErr))
			}
		}
	}

	return &ItemDetail{Item: *item, HighestBid: highest}, nil
}

// ListActiveItems returns all non-deleted items, newest first.
func (s *Service) ListActiveItems(ctx context.Context) ([]entity.Item, error) {
	ctx, span := serviceTracer.Start(ctx, "AuctionService.ListActiveItems")
	defer span.End()

	items, err := s.items.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list items", errorbank.WithCause(err))
	}
	return items, nil
}

// ListItemsByOwner returns the owner's non-deleted items, newest first.
func (s *Service) ListItemsByOwner(ctx context.Context, ownerID string) ([]entity.Item, error) {
	ctx, span := serviceTracer.Start(ctx, "AuctionService.ListItemsByOwner", trace.WithAttributes(attribute.String("item.owner_id", ownerID)))
	defer span.End()

	items, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list items", errorbank.WithCause(err))
	}
	return items, nil
}

// SoftDeleteItem hides an item from listing and bidding while keeping the
// row, and its bid history, for audit. Already-deleted items report not
// found. Ownership checks belong to the caller.
func (s *Service) SoftDeleteItem(ctx context.Context, itemID string) (*entity.Item, error) {
	ctx, span := serviceTracer.Start(ctx, "AuctionService.SoftDeleteItem", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	if _, err := uuid.Parse(itemID); err != nil {
		return nil, errorbank.BadRequest("invalid item id", errorbank.WithCause(err))
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

	item.Deleted = true
	item.DeletedAt = s.clock()
	if err := s.items.Update(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to delete item", errorbank.WithCause(err))
	}
	return item, nil
}
