package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bhesbhusa/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const clothesColumns = `
	id, title, price, category, description, available, section, image,
	tags, is_free_size, available_sizes, created_at`

// clothesRepository implements ClothesRepository using PostgreSQL.
type clothesRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewClothesRepository creates a new PostgreSQL-backed clothes repository.
func NewClothesRepository(pool *pgxpool.Pool, logger zerolog.Logger) ClothesRepository {
	return &clothesRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "clothes").Logger(),
	}
}

func (r *clothesRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Clothes, error) {
	query := `SELECT` + clothesColumns + `
		FROM clothes
		ORDER BY created_at DESC, title
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int("limit", limit).Int("offset", offset).Msg("failed to query clothes")
		return nil, fmt.Errorf("failed to query clothes: %w", err)
	}

	return r.collect(rows)
}

func (r *clothesRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Clothes, error) {
	query := `SELECT` + clothesColumns + ` FROM clothes WHERE id = $1`

	c, err := scanClothes(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("cloth_id", id.String()).Msg("clothes not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("cloth_id", id.String()).Msg("failed to query clothes")
		return nil, fmt.Errorf("failed to query clothes: %w", err)
	}

	return c, nil
}

func (r *clothesRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Clothes, error) {
	if len(ids) == 0 {
		return []model.Clothes{}, nil
	}

	query := `SELECT` + clothesColumns + ` FROM clothes WHERE id = ANY($1::uuid[])`

	rows, err := r.pool.Query(ctx, query, uuidStrings(ids))
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query clothes by IDs")
		return nil, fmt.Errorf("failed to query clothes by IDs: %w", err)
	}

	return r.collect(rows)
}

func (r *clothesRepository) collect(rows pgx.Rows) ([]model.Clothes, error) {
	defer rows.Close()

	clothes := []model.Clothes{}
	for rows.Next() {
		c, err := scanClothes(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan clothes row")
			return nil, fmt.Errorf("failed to scan clothes: %w", err)
		}
		clothes = append(clothes, *c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating clothes rows")
		return nil, fmt.Errorf("error iterating clothes: %w", err)
	}

	return clothes, nil
}

func scanClothes(row pgx.Row) (*model.Clothes, error) {
	var (
		c     model.Clothes
		price pgtype.Numeric
	)
	err := row.Scan(
		&c.ID, &c.Title, &price, &c.Category, &c.Description, &c.Available, &c.Section, &c.Image,
		&c.Tags, &c.IsFreeSize, &c.AvailableSizes, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Price = fromNumeric(price)
	return &c, nil
}

// prefixed qualifies each column in a comma-separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = " " + alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}
