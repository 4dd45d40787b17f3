package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ArtistGenreRepository caches genre tags per artist.
type ArtistGenreRepository struct {
	pool *pgxpool.Pool
}

// UpsertBatch inserts or updates multiple genre rows in one statement.
func (r *ArtistGenreRepository) UpsertBatch(ctx context.Context, genres []ArtistGenre) error {
	if len(genres) == 0 {
		return nil
	}

	query := `
		INSERT INTO artist_genres (artist_id, genre, weight, fetched_at)
		SELECT * FROM unnest($1::text[], $2::text[], $3::int[], $4::timestamptz[])
		ON CONFLICT (artist_id, genre) DO UPDATE SET
			weight = EXCLUDED.weight,
			fetched_at = EXCLUDED.fetched_at
	`

	artistIDs := make([]string, len(genres))
	names := make([]string, len(genres))
	weights := make([]int, len(genres))
	fetchedAts := make([]time.Time, len(genres))

	for i, g := range genres {
		artistIDs[i] = g.ArtistID
		names[i] = g.Genre
		weights[i] = g.Weight
		fetchedAts[i] = g.FetchedAt
	}

	_, err := r.pool.Exec(ctx, query, artistIDs, names, weights, fetchedAts)
	if err != nil {
		return fmt.Errorf("batch upserting artist genres: %w", err)
	}
	return nil
}

// GetForArtists returns cached genres keyed by artist ID, heaviest first.
func (r *ArtistGenreRepository) GetForArtists(ctx context.Context, artistIDs []string) (map[string][]ArtistGenre, error) {
	if len(artistIDs) == 0 {
		return make(map[string][]ArtistGenre), nil
	}

	query := `
		SELECT artist_id, genre, weight, fetched_at
		FROM artist_genres
		WHERE artist_id = ANY($1)
		ORDER BY artist_id, weight DESC
	`
	rows, err := r.pool.Query(ctx, query, artistIDs)
	if err != nil {
		return nil, fmt.Errorf("querying artist genres: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]ArtistGenre)
	for rows.Next() {
		var g ArtistGenre
		if err := rows.Scan(&g.ArtistID, &g.Genre, &g.Weight, &g.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning artist genre: %w", err)
		}
		result[g.ArtistID] = append(result[g.ArtistID], g)
	}
	return result, rows.Err()
}
