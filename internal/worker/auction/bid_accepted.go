package auction

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/config"
	"github.com/Additional-Code/gavel/internal/messaging"
	auctionsvc "github.com/Additional-Code/gavel/internal/service/auction"
	"github.com/Additional-Code/gavel/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/gavel/worker/auction")

// Module registers auction-related worker handlers.
var Module = fx.Module("worker_auction",
	fx.Provide(
		fx.Annotate(
			NewBidAcceptedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewBidAcceptedHandler sets up a worker handler that records accepted-bid
// events flowing off the bus.
func NewBidAcceptedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.auction.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event auctionsvc.BidAcceptedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode bid accepted", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		logger.Info("bid accepted event processed",
			zap.String("bid_id", event.BidID),
			zap.String("item_id", event.ItemID),
			zap.String("bidder", event.BidderName),
			zap.Int64("amount", event.Amount),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
