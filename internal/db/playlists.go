package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles generated playlist history.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// Create records a generated playlist and its tracks in one transaction.
// Track positions follow the order of tracks.
func (r *PlaylistRepository) Create(ctx context.Context, pl *GeneratedPlaylist, tracks []Track) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if pl.ID == uuid.Nil {
		pl.ID = uuid.New()
	}

	playlistQuery := `
		INSERT INTO generated_playlists
			(id, user_id, spotify_playlist_id, name, url, track_count, batches_issued, batches_skipped, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, playlistQuery,
		pl.ID,
		pl.UserID,
		pl.SpotifyPlaylistID,
		pl.Name,
		pl.URL,
		pl.TrackCount,
		pl.BatchesIssued,
		pl.BatchesSkipped,
	).Scan(&pl.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting generated playlist: %w", err)
	}

	if len(tracks) > 0 {
		ids := make([]string, len(tracks))
		names := make([]string, len(tracks))
		artists := make([]string, len(tracks))
		uris := make([]string, len(tracks))
		positions := make([]int, len(tracks))
		for i, t := range tracks {
			ids[i] = t.ID
			names[i] = t.Name
			artists[i] = t.Artist
			uris[i] = t.URI
			positions[i] = i
		}

		tracksQuery := `
			INSERT INTO tracks (id, name, artist, uri, created_at)
			SELECT id, name, artist, uri, NOW()
			FROM unnest($1::text[], $2::text[], $3::text[], $4::text[]) AS t(id, name, artist, uri)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				artist = EXCLUDED.artist,
				uri = EXCLUDED.uri
		`
		if _, err := tx.Exec(ctx, tracksQuery, ids, names, artists, uris); err != nil {
			return fmt.Errorf("upserting playlist tracks: %w", err)
		}

		linkQuery := `
			INSERT INTO generated_playlist_tracks (playlist_id, track_id, position)
			SELECT $1, unnest($2::text[]), unnest($3::int[])
		`
		if _, err := tx.Exec(ctx, linkQuery, pl.ID, ids, positions); err != nil {
			return fmt.Errorf("linking playlist tracks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListForUser returns a user's generated playlists, newest first.
func (r *PlaylistRepository) ListForUser(ctx context.Context, userID string, limit int) ([]GeneratedPlaylist, error) {
	query := `
		SELECT id, user_id, spotify_playlist_id, name, url, track_count,
		       batches_issued, batches_skipped, created_at
		FROM generated_playlists
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying generated playlists: %w", err)
	}
	defer rows.Close()

	var playlists []GeneratedPlaylist
	for rows.Next() {
		var pl GeneratedPlaylist
		if err := rows.Scan(
			&pl.ID,
			&pl.UserID,
			&pl.SpotifyPlaylistID,
			&pl.Name,
			&pl.URL,
			&pl.TrackCount,
			&pl.BatchesIssued,
			&pl.BatchesSkipped,
			&pl.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning generated playlist: %w", err)
		}
		playlists = append(playlists, pl)
	}
	return playlists, rows.Err()
}

// GetTracks returns the tracks of a generated playlist in playlist order.
func (r *PlaylistRepository) GetTracks(ctx context.Context, playlistID uuid.UUID) ([]Track, error) {
	query := `
		SELECT t.id, t.name, t.artist, t.uri, t.created_at
		FROM tracks t
		JOIN generated_playlist_tracks gpt ON t.id = gpt.track_id
		WHERE gpt.playlist_id = $1
		ORDER BY gpt.position
	`
	rows, err := r.pool.Query(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("querying playlist tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Name, &t.Artist, &t.URI, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// CountForUser returns how many playlists a user has generated.
func (r *PlaylistRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM generated_playlists WHERE user_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting generated playlists: %w", err)
	}
	return count, nil
}
