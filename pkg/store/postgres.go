package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hilltop-games/thegame/pkg/game/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database behind connStr. A connection
// pool backs the store since handlers commit concurrently. The matches
// table is expected to exist already (see migrations/).
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	if err := pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database); err != nil {
		return nil, fmt.Errorf("unable to query database: %v", err)
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, gameID string) (*types.GameState, int64, error) {
	var raw []byte
	var version int64
	err := s.pool.QueryRow(ctx, "SELECT state, version FROM matches WHERE game_id = $1", gameID).Scan(&raw, &version)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, VersionNone, &ErrNotFound{GameID: gameID}
		}
		return nil, VersionNone, fmt.Errorf("failed to scan match: %v", err)
	}

	state := &types.GameState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, VersionNone, &ErrNotFound{GameID: gameID}
	}
	return state, version, nil
}

func (s *PostgresStore) Put(ctx context.Context, gameID string, state *types.GameState, version int64) (int64, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return VersionNone, fmt.Errorf("failed to marshal match: %v", err)
	}

	if version == VersionNone {
		q := `
		INSERT INTO matches (game_id, version, state) VALUES ($1, 1, $2)
		ON CONFLICT (game_id) DO NOTHING;
		`
		tag, err := s.pool.Exec(ctx, q, gameID, raw)
		if err != nil {
			return VersionNone, fmt.Errorf("failed to insert match: %v", err)
		}
		if tag.RowsAffected() == 0 {
			return VersionNone, &ErrVersionConflict{GameID: gameID}
		}
		return 1, nil
	}

	q := `
	UPDATE matches SET state = $1, version = version + 1, updated_at = now()
	WHERE game_id = $2 AND version = $3;
	`
	tag, err := s.pool.Exec(ctx, q, raw, gameID, version)
	if err != nil {
		return VersionNone, fmt.Errorf("failed to update match: %v", err)
	}
	if tag.RowsAffected() == 0 {
		if s.exists(ctx, gameID) {
			return VersionNone, &ErrVersionConflict{GameID: gameID}
		}
		return VersionNone, &ErrNotFound{GameID: gameID}
	}
	return version + 1, nil
}

func (s *PostgresStore) Delete(ctx context.Context, gameID string, version int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM matches WHERE game_id = $1 AND version = $2", gameID, version)
	if err != nil {
		return fmt.Errorf("failed to delete match: %v", err)
	}
	if tag.RowsAffected() == 0 && s.exists(ctx, gameID) {
		return &ErrVersionConflict{GameID: gameID}
	}
	return nil
}

func (s *PostgresStore) exists(ctx context.Context, gameID string) bool {
	var one int
	err := s.pool.QueryRow(ctx, "SELECT 1 FROM matches WHERE game_id = $1", gameID).Scan(&one)
	return err == nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
