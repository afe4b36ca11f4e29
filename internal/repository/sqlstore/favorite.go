package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/terrain-ouvert/datahub/internal/domain/favorite"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
)

// FavoriteRepository implements favorite.Repository. Each (user, publication)
// pair is a row under a unique constraint, so toggles never duplicate an
// entry nor rewrite the rest of the set.
type FavoriteRepository struct {
	db *DB
}

// NewFavoriteRepository creates a new favorites repository
func NewFavoriteRepository(db *DB) favorite.Repository {
	return &FavoriteRepository{db: db}
}

// Toggle removes the pair when present, otherwise adds it, and returns the
// resulting set, all in one transaction
func (r *FavoriteRepository) Toggle(ctx context.Context, userID int64, publicationID string) (*favorite.ToggleResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.DatabaseError("Failed to start favorites transaction", err)
	}
	defer tx.Rollback()

	rebind := r.db.Dialect.Rebind

	result, err := tx.ExecContext(ctx,
		rebind("DELETE FROM favorites WHERE user_id = ? AND publication_id = ?"),
		userID, publicationID,
	)
	if err != nil {
		return nil, errors.DatabaseError("Failed to remove favorite", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return nil, errors.DatabaseError("Failed to get affected rows", err)
	}

	added := false
	if removed == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			rebind("SELECT 1 FROM publications WHERE id = ?"), publicationID,
		).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("publication")
		}
		if err != nil {
			return nil, errors.DatabaseError("Failed to get publication", err)
		}

		result, err := tx.ExecContext(ctx,
			rebind(`INSERT INTO favorites (user_id, publication_id, created_at) VALUES (?, ?, ?)
				ON CONFLICT (user_id, publication_id) DO NOTHING`),
			userID, publicationID, millis(time.Now()),
		)
		if err != nil {
			return nil, errors.DatabaseError("Failed to add favorite", err)
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return nil, errors.DatabaseError("Failed to get affected rows", err)
		}
		// Zero when a concurrent toggle inserted the pair first.
		added = inserted > 0
	}

	ids, err := favoriteIDs(ctx, tx, rebind, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.DatabaseError("Failed to commit favorites transaction", err)
	}

	return &favorite.ToggleResult{Added: added, IDs: ids}, nil
}

// IDs returns the user's set in insertion order
func (r *FavoriteRepository) IDs(ctx context.Context, userID int64) ([]string, error) {
	return favoriteIDs(ctx, r.db, r.db.Dialect.Rebind, userID)
}

// DeleteDangling removes favorites whose publication no longer exists
func (r *FavoriteRepository) DeleteDangling(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE publication_id NOT IN (SELECT id FROM publications)",
	)
	if err != nil {
		return 0, errors.DatabaseError("Failed to sweep favorites", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("Failed to get affected rows", err)
	}
	return n, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func favoriteIDs(ctx context.Context, q queryer, rebind func(string) string, userID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		rebind("SELECT publication_id FROM favorites WHERE user_id = ? ORDER BY id ASC"), userID,
	)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list favorites", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("Failed to scan favorite", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list favorites", err)
	}
	return ids, nil
}
