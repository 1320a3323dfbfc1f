package auction

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/entity"
	bidrepo "github.com/Additional-Code/gavel/internal/repository/bid"
	"github.com/Additional-Code/gavel/pkg/errorbank"
)

// ResolutionSummary aggregates one resolver sweep for operational consumption.
type ResolutionSummary struct {
	TotalConsidered int `json:"totalConsidered"`
	ResolvedSold    int `json:"resolvedSold"`
	ResolvedReserve int `json:"resolvedReserve"`
}

// ResolveExpired finalizes every non-deleted FOR_SALE item whose auction
// window has closed: items with a highest bid become SOLD with the buyer
// recorded, items without bids become RESERVE_NOT_MET. A failure on one
// item is logged and does not abort the rest of the sweep; the summary
// counts only items actually updated, so an immediate re-run is a no-op for
// everything already resolved.
func (s *Service) ResolveExpired(ctx context.Context) (ResolutionSummary, error) {
	ctx, span := serviceTracer.Start(ctx, "AuctionService.ResolveExpired")
	defer span.End()

	var summary ResolutionSummary

	now := s.clock()
	expired, err := s.items.ListExpired(ctx, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return summary, errorbank.Internal("failed to query expired items", errorbank.WithCause(err))
	}
	summary.TotalConsidered = len(expired)

	var sweepErr error
	for i := range expired {
		if err := s.resolveItem(ctx, expired[i].ID, &summary); err != nil {
			if s.logger != nil {
				s.logger.Error("item resolution failed", zap.String("item_id", expired[i].ID), zap.Error(err))
			}
			sweepErr = errors.Join(sweepErr, err)
		}
	}

	span.SetAttributes(
		attribute.Int("resolve.total_considered", summary.TotalConsidered),
		attribute.Int("resolve.sold", summary.ResolvedSold),
		attribute.Int("resolve.reserve_not_met", summary.ResolvedReserve),
	)
	return summary, sweepErr
}

// resolveItem finalizes one item under its lock. The item is re-read inside
// the lock so a bid accepted after the eligibility query, or a concurrent
// soft delete, is observed before the status flips.
func (s *Service) resolveItem(ctx context.Context, itemID string, summary *ResolutionSummary) error {
	unlock := s.locks.lock(itemID)
	defer unlock()

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Deleted || item.Status != entity.ItemForSale || !item.Expired(s.clock()) {
		return nil
	}

	highest, err := s.bids.HighestForItem(ctx, item.ID)
	if err != nil && !errors.Is(err, bidrepo.ErrNoBids) {
		return err
	}

	if highest != nil {
		item.Status = entity.ItemSold
		item.BuyerID = highest.BidderID
	} else {
		item.Status = entity.ItemReserveNotMet
	}

	if err := s.items.Update(ctx, item); err != nil {
		return err
	}

	if highest != nil {
		summary.ResolvedSold++
	} else {
		summary.ResolvedReserve++
	}

	if s.logger != nil {
		s.logger.Info("item resolved",
			zap.String("item_id", item.ID),
			zap.String("status", string(item.Status)),
			zap.String("buyer_id", item.BuyerID),
		)
	}
	return nil
}
