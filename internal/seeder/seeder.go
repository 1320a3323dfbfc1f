package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/database"
	"github.com/Additional-Code/gavel/internal/entity"
)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Run seeds example users and items if they are missing.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.users(ctx); err != nil {
		return err
	}
	return s.items(ctx)
}

func (s *Seeder) users(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.User{
		{ID: "7a8c9f2e-0000-4000-8000-000000000001", Name: "Alice Carver", CreatedAt: now},
		{ID: "7a8c9f2e-0000-4000-8000-000000000002", Name: "Bob Mercer", CreatedAt: now},
	}

	for _, sample := range samples {
		u := sample
		_, err := s.db.NewInsert().Model(&u).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded users", zap.Int("count", len(samples)))
	}
	return nil
}

func (s *Seeder) items(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Item{
		{
			ID:        "3f1b6a7d-0000-4000-8000-000000000001",
			Name:      "Walnut writing desk",
			Price:     500,
			Status:    entity.ItemForSale,
			OwnerID:   "7a8c9f2e-0000-4000-8000-000000000001",
			EndTime:   now.Add(24 * time.Hour),
			CreatedAt: now,
		},
		{
			ID:        "3f1b6a7d-0000-4000-8000-000000000002",
			Name:      "Brass telescope",
			Price:     120,
			Status:    entity.ItemForSale,
			OwnerID:   "7a8c9f2e-0000-4000-8000-000000000002",
			EndTime:   now.Add(48 * time.Hour),
			CreatedAt: now,
		},
	}

	for _, sample := range samples {
		item := sample
		_, err := s.db.NewInsert().Model(&item).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded items", zap.Int("count", len(samples)))
	}
	return nil
}
