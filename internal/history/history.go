// internal/history/history.go
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pool is the global connection pool; nil when history is not configured.
// History is write-only: finished games are recorded for later analysis, no
// game state is ever read back.
var pool *pgxpool.Pool

// GameRecord is the result of one finished game.
type GameRecord struct {
	RoomID     int            `json:"room_id"`
	WinnerID   int            `json:"winner_id"`
	WinnerName string         `json:"winner_name"`
	Scores     map[string]int `json:"scores"`
	Forced     bool           `json:"forced"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Connect builds the pgx pool from POSTGRES_USER, POSTGRES_PASSWORD,
// PG_HOST, PG_PORT and PG_DATABASE and verifies connectivity.
func Connect(ctx context.Context) error {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}
	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return fmt.Errorf("db ping error: %w", err)
	}

	pool = p
	return nil
}

// Enabled reports whether the history store is connected.
func Enabled() bool {
	return pool != nil
}

// Close releases the pool at shutdown.
func Close() {
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// RecordGame inserts a finished game into game_results.
func RecordGame(ctx context.Context, rec GameRecord) error {
	if pool == nil {
		return nil
	}
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	q := `
		INSERT INTO game_results (id, room_id, winner_id, winner_name, scores, forced, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = pool.Exec(ctx, q,
		uuid.New(), rec.RoomID, rec.WinnerID, rec.WinnerName, scores, rec.Forced, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert game result: %w", err)
	}
	return nil
}
