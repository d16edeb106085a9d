package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SeedUser is a fixture account.
type SeedUser struct {
	ID       string
	Username string
	Email    string
}

// SeedClothes is a fixture catalog entry. Price is a decimal string.
type SeedClothes struct {
	ID             string
	Title          string
	Price          string
	Category       string
	Section        string
	IsFreeSize     bool
	AvailableSizes []string
}

// SampleUsers and SampleClothes populate a development database.
var (
	SampleUsers = []SeedUser{
		{ID: "8f14e45f-ceea-4a6e-9d4b-3c6b8a1f0001", Username: "Sita Sharma", Email: "sita@example.com"},
		{ID: "8f14e45f-ceea-4a6e-9d4b-3c6b8a1f0002", Username: "Admin", Email: "admin@example.com"},
	}

	SampleClothes = []SeedClothes{
		{ID: "2b1c7a3e-5d4f-4e6a-8b9c-0d1e2f3a0001", Title: "Daura Suruwal", Price: "4500.00", Category: "men", Section: "traditional", AvailableSizes: []string{"M", "L", "XL"}},
		{ID: "2b1c7a3e-5d4f-4e6a-8b9c-0d1e2f3a0002", Title: "Gunyu Cholo", Price: "3800.00", Category: "women", Section: "traditional", AvailableSizes: []string{"S", "M", "L"}},
		{ID: "2b1c7a3e-5d4f-4e6a-8b9c-0d1e2f3a0003", Title: "Dhaka Topi", Price: "500.00", Category: "accessories", Section: "headwear", IsFreeSize: true},
		{ID: "2b1c7a3e-5d4f-4e6a-8b9c-0d1e2f3a0004", Title: "Pashmina Shawl", Price: "1200.00", Category: "women", Section: "accessories", IsFreeSize: true},
	}
)

// Seed upserts the sample users and clothes in one transaction.
func Seed(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, u := range SampleUsers {
		batch.Queue(`
			INSERT INTO users (id, username, email) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email`,
			u.ID, u.Username, u.Email)
	}
	for _, c := range SampleClothes {
		sizes := c.AvailableSizes
		if sizes == nil {
			sizes = []string{}
		}
		batch.Queue(`
			INSERT INTO clothes (id, title, price, category, section, is_free_size, available_sizes)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, price = EXCLUDED.price`,
			c.ID, c.Title, c.Price, c.Category, c.Section, c.IsFreeSize, sizes)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to seed fixtures: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	logger.Info().
		Int("users", len(SampleUsers)).
		Int("clothes", len(SampleClothes)).
		Msg("sample data seeded")

	return nil
}
