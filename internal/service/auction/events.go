package auction

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/entity"
)

// BidAcceptedEvent is emitted to the message bus when a bid is recorded,
// for downstream archival and analytics.
type BidAcceptedEvent struct {
	BidID      string    `json:"bid_id"`
	ItemID     string    `json:"item_id"`
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Service) publishBidAccepted(ctx context.Context, bid *entity.Bid, bidderName string) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := BidAcceptedEvent{
		BidID:      bid.ID,
		ItemID:     bid.ItemID,
		BidderID:   bid.BidderID,
		BidderName: bidderName,
		Amount:     bid.Amount,
		CreatedAt:  bid.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal bid accepted", zap.Error(err))
		}
		return
	}
	// Keyed by item id so all of an item's bids land on one partition in order.
	if err := s.publisher.Publish(ctx, []byte(bid.ItemID), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish bid accepted", zap.Error(err))
		}
	}
}
