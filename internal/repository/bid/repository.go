package bid

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/gavel/internal/database"
	"github.com/Additional-Code/gavel/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/gavel/repository/bid")

// ErrNoBids is returned when an item has no recorded bids.
var ErrNoBids = errors.New("no bids for item")

// Repository is the append-only bid ledger. Bids are inserted once and
// never mutated.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Append records a new bid using the write connection.
func (r *Repository) Append(ctx context.Context, b *entity.Bid) error {
	if b == nil {
		return errors.New("nil bid")
	}
	ctx, span := repoTracer.Start(ctx, "BidRepository.Append", trace.WithAttributes(
		attribute.String("bid.item_id", b.ItemID),
		attribute.Int64("bid.amount", b.Amount),
	))
	defer span.End()

	_, err := r.writer.NewInsert().Model(b).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// HighestForItem returns the item's highest bid. Amount decides; the
// earlier bid wins when amounts are equal. Reads the primary connection so
// the acceptance floor includes every committed bid even when a read
// replica is configured.
func (r *Repository) HighestForItem(ctx context.Context, itemID string) (*entity.Bid, error) {
	ctx, span := repoTracer.Start(ctx, "BidRepository.HighestForItem", trace.WithAttributes(attribute.String("bid.item_id", itemID)))
	defer span.End()

	b := new(entity.Bid)
	err := r.writer.NewSelect().Model(b).
		Where("item_id = ?", itemID).
		Order("amount DESC").
		Order("created_at ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBids
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return b, nil
}

// ListByItem returns an item's bids, most recent first.
func (r *Repository) ListByItem(ctx context.Context, itemID string) ([]entity.Bid, error) {
	ctx, span := repoTracer.Start(ctx, "BidRepository.ListByItem", trace.WithAttributes(attribute.String("bid.item_id", itemID)))
	defer span.End()

	var bids []entity.Bid
	err := r.reader.NewSelect().Model(&bids).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return bids, nil
}
