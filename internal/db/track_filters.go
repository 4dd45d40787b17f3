package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrackFilterRepository stores each user's encoded delivered-track filter.
type TrackFilterRepository struct {
	pool *pgxpool.Pool
}

// Load returns the encoded filter for userID, or ErrNotFound.
func (r *TrackFilterRepository) Load(ctx context.Context, userID string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT filter FROM track_filters WHERE user_id = $1`, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying track filter: %w", err)
	}
	return data, nil
}

// Save inserts or replaces the encoded filter for userID.
func (r *TrackFilterRepository) Save(ctx context.Context, userID string, data []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO track_filters (user_id, filter, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			filter = EXCLUDED.filter,
			updated_at = EXCLUDED.updated_at
	`, userID, data)
	if err != nil {
		return fmt.Errorf("saving track filter: %w", err)
	}
	return nil
}
