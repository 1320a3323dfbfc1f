package item

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/gavel/internal/database"
	"github.com/Additional-Code/gavel/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/gavel/repository/item")

// ErrNotFound is returned when an item is missing.
var ErrNotFound = errors.New("item not found")

// Repository encapsulates read/write access for items.
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

// Create persists a new item using the write connection.
func (r *Repository) Create(ctx context.Context, item *entity.Item) error {
	if item == nil {
		return errors.New("nil item")
	}
	ctx, span := repoTracer.Start(ctx, "ItemRepository.Create", trace.WithAttributes(attribute.String("item.id", item.ID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(item).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an item by primary key. It reads the primary connection:
// bid acceptance and resolution validate against this row under the item
// lock, and a lagging read replica would let stale state through the lock.
// Soft-deleted rows are returned as stored; visibility is the caller's
// concern.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.GetByID", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	item := new(entity.Item)
	err := r.writer.NewSelect().Model(item).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return item, nil
}

// ListActive returns all non-deleted items, newest first.
func (r *Repository) ListActive(ctx context.Context) ([]entity.Item, error) {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.ListActive")
	defer span.End()

	var items []entity.Item
	err := r.reader.NewSelect().Model(&items).
		Where("deleted = ?", false).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// ListByOwner returns the owner's non-deleted items, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Item, error) {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.ListByOwner", trace.WithAttributes(attribute.String("item.owner_id", ownerID)))
	defer span.End()

	var items []entity.Item
	err := r.reader.NewSelect().Model(&items).
		Where("deleted = ?", false).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// ListExpired returns non-deleted items still marked for sale whose auction
// window closed at or before now. This is the resolver's eligibility query.
func (r *Repository) ListExpired(ctx context.Context, now time.Time) ([]entity.Item, error) {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.ListExpired")
	defer span.End()

	var items []entity.Item
	err := r.reader.NewSelect().Model(&items).
		Where("deleted = ?", false).
		Where("status = ?", entity.ItemForSale).
		Where("end_time <= ?", now).
		Order("end_time ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// Update persists item mutations using the write connection.
func (r *Repository) Update(ctx context.Context, item *entity.Item) error {
	if item == nil {
		return errors.New("nil item")
	}
	ctx, span := repoTracer.Start(ctx, "ItemRepository.Update", trace.WithAttributes(attribute.String("item.id", item.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(item).WherePK().Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}
