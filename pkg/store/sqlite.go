package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hilltop-games/thegame/pkg/game/types"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and applies every migration in
// the migrations directory in name order.
func NewSQLiteStore(ctx context.Context, path string, migrations string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteStore{
		db: db,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, gameID string) (*types.GameState, int64, error) {
	q := `
	SELECT state, version FROM matches WHERE game_id = ?;
	`
	var raw []byte
	var version int64
	if err := s.db.QueryRowContext(ctx, q, gameID).Scan(&raw, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, VersionNone, &ErrNotFound{GameID: gameID}
		}
		return nil, VersionNone, fmt.Errorf("failed to scan match: %v", err)
	}

	state := &types.GameState{}
	if err := json.Unmarshal(raw, state); err != nil {
		// A document we cannot decode is treated the same as a missing one.
		return nil, VersionNone, &ErrNotFound{GameID: gameID}
	}
	return state, version, nil
}

func (s *SQLiteStore) Put(ctx context.Context, gameID string, state *types.GameState, version int64) (int64, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return VersionNone, fmt.Errorf("failed to marshal match: %v", err)
	}

	if version == VersionNone {
		q := `
		INSERT OR IGNORE INTO matches (game_id, version, state) VALUES (?, 1, ?);
		`
		result, err := s.db.ExecContext(ctx, q, gameID, raw)
		if err != nil {
			return VersionNone, fmt.Errorf("failed to insert match: %v", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return VersionNone, fmt.Errorf("failed to get rows affected: %v", err)
		}
		if affected == 0 {
			return VersionNone, &ErrVersionConflict{GameID: gameID}
		}
		return 1, nil
	}

	q := `
	UPDATE matches SET state = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
	WHERE game_id = ? AND version = ?;
	`
	result, err := s.db.ExecContext(ctx, q, raw, gameID, version)
	if err != nil {
		return VersionNone, fmt.Errorf("failed to update match: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return VersionNone, fmt.Errorf("failed to get rows affected: %v", err)
	}
	if affected == 0 {
		if s.exists(ctx, gameID) {
			return VersionNone, &ErrVersionConflict{GameID: gameID}
		}
		return VersionNone, &ErrNotFound{GameID: gameID}
	}
	return version + 1, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, gameID string, version int64) error {
	q := `
	DELETE FROM matches WHERE game_id = ? AND version = ?;
	`
	result, err := s.db.ExecContext(ctx, q, gameID, version)
	if err != nil {
		return fmt.Errorf("failed to delete match: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if affected == 0 && s.exists(ctx, gameID) {
		return &ErrVersionConflict{GameID: gameID}
	}
	return nil
}

func (s *SQLiteStore) exists(ctx context.Context, gameID string) bool {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM matches WHERE game_id = ?;`, gameID).Scan(&one)
	return err == nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
