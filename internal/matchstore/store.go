// Package matchstore persists match results in a local SQLite database so
// grids can aggregate win rates across runs.
package matchstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrAlreadyExists is returned when a match ID has been recorded before.
var ErrAlreadyExists = errors.New("match already recorded")

// ErrNotFound is returned when a match ID is unknown.
var ErrNotFound = errors.New("match not found")

// BotResult is one participant's outcome within a match.
type BotResult struct {
	Command string
	Rank    int
	Score   int64
}

// Match is one recorded engine run.
type Match struct {
	ID         string
	Width      int
	Height     int
	Seed       int64
	ReplayPath string
	// ResultsJSON holds the engine's raw results document, when available.
	ResultsJSON string
	Bots        []BotResult
	CreatedAt   time.Time
}

// Summary aggregates the recorded history.
type Summary struct {
	Total int
	// Wins counts rank-1 finishes per bot command.
	Wins map[string]int
}

// Store persists match history in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite match store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrationsFS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordMatch inserts one match and its participants atomically.
func (s *Store) RecordMatch(ctx context.Context, match Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(match.ID)
	if id == "" {
		return fmt.Errorf("match id is required")
	}
	if len(match.Bots) == 0 {
		return fmt.Errorf("match must have at least one bot")
	}
	createdAt := match.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record match: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO matches (id, width, height, seed, replay_path, results_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		match.Width,
		match.Height,
		match.Seed,
		match.ReplayPath,
		match.ResultsJSON,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("record match: %w", err)
	}

	for position, bot := range match.Bots {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO match_bots (match_id, position, command, rank, score)
			 VALUES (?, ?, ?, ?, ?)`,
			id,
			position,
			bot.Command,
			bot.Rank,
			bot.Score,
		)
		if err != nil {
			return fmt.Errorf("record match bot %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record match: %w", err)
	}
	return nil
}

// GetMatch returns one match with its participants in grid order.
func (s *Store) GetMatch(ctx context.Context, id string) (Match, error) {
	if err := ctx.Err(); err != nil {
		return Match{}, err
	}
	if s == nil || s.db == nil {
		return Match{}, fmt.Errorf("storage is not configured")
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, width, height, seed, replay_path, results_json, created_at
		   FROM matches
		  WHERE id = ?`,
		id,
	)

	var match Match
	var createdAt int64
	err := row.Scan(
		&match.ID,
		&match.Width,
		&match.Height,
		&match.Seed,
		&match.ReplayPath,
		&match.ResultsJSON,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Match{}, ErrNotFound
		}
		return Match{}, fmt.Errorf("get match: %w", err)
	}
	match.CreatedAt = fromMillis(createdAt)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT command, rank, score
		   FROM match_bots
		  WHERE match_id = ?
		  ORDER BY position ASC`,
		id,
	)
	if err != nil {
		return Match{}, fmt.Errorf("get match bots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bot BotResult
		if err := rows.Scan(&bot.Command, &bot.Rank, &bot.Score); err != nil {
			return Match{}, fmt.Errorf("get match bots: %w", err)
		}
		match.Bots = append(match.Bots, bot)
	}
	if err := rows.Err(); err != nil {
		return Match{}, fmt.Errorf("get match bots: %w", err)
	}
	return match, nil
}

// Summary aggregates totals and rank-1 finishes across all recorded matches.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	if s == nil || s.db == nil {
		return Summary{}, fmt.Errorf("storage is not configured")
	}

	summary := Summary{Wins: make(map[string]int)}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`)
	if err := row.Scan(&summary.Total); err != nil {
		return Summary{}, fmt.Errorf("count matches: %w", err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT command, COUNT(*)
		   FROM match_bots
		  WHERE rank = 1
		  GROUP BY command`,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("count wins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var command string
		var wins int
		if err := rows.Scan(&command, &wins); err != nil {
			return Summary{}, fmt.Errorf("count wins: %w", err)
		}
		summary.Wins[command] = wins
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("count wins: %w", err)
	}
	return summary, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
