package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/yegors/skyguess/pkg/logger"
)

// MaxScorePerGame is the nominal best possible score for one game
const MaxScorePerGame = 1000

// UserStats is a player's running totals
type UserStats struct {
	Name               string `json:"name"`
	GamesPlayed        int    `json:"games_played"`
	TotalScore         int    `json:"total_score"`
	BestScore          int    `json:"best_score"`
	PerformancePercent int    `json:"performance_percent,omitempty"`
}

// UserStorage persists per-player statistics
type UserStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewUserStorage creates the user storage
func NewUserStorage(db *sql.DB, log *logger.Logger) (*UserStorage, error) {
	s := &UserStorage{
		db:     db,
		logger: log.Named("sqlite-users"),
	}
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			name TEXT PRIMARY KEY,
			games_played INTEGER NOT NULL DEFAULT 0,
			total_score INTEGER NOT NULL DEFAULT 0,
			best_score INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}
	return s, nil
}

// GetUser returns the stats for name; an unknown player has zero stats
func (s *UserStorage) GetUser(name string) (UserStats, error) {
	u := UserStats{Name: name}
	err := s.db.QueryRow(`SELECT games_played, total_score, best_score FROM users WHERE name = ?`, name).
		Scan(&u.GamesPlayed, &u.TotalScore, &u.BestScore)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return UserStats{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// RecordGame adds one finished game to name's totals and returns the new stats
func (s *UserStorage) RecordGame(name string, score int) (UserStats, error) {
	_, err := s.db.Exec(`
		INSERT INTO users (name, games_played, total_score, best_score) VALUES (?, 1, ?, MAX(?, 0))
		ON CONFLICT(name) DO UPDATE SET
			games_played = games_played + 1,
			total_score = total_score + excluded.total_score,
			best_score = MAX(best_score, excluded.best_score)
	`, name, score, score)
	if err != nil {
		return UserStats{}, fmt.Errorf("failed to record game: %w", err)
	}

	s.logger.Debug("Game recorded",
		logger.String("name", name),
		logger.Int("score", score))

	return s.GetUser(name)
}

// DeleteUser removes name; deleting an unknown player is not an error
func (s *UserStorage) DeleteUser(name string) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("User deleted", logger.String("name", name))
	return nil
}

// Stats returns every player with a performance percentage, best score first
func (s *UserStorage) Stats() ([]UserStats, error) {
	rows, err := s.db.Query(`
		SELECT name, games_played, total_score, best_score
		FROM users
		ORDER BY best_score DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	stats := []UserStats{}
	for rows.Next() {
		var u UserStats
		if err := rows.Scan(&u.Name, &u.GamesPlayed, &u.TotalScore, &u.BestScore); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.PerformancePercent = PerformancePercent(u.TotalScore, u.GamesPlayed)
		stats = append(stats, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return stats, nil
}

// PerformancePercent is total as a share of the maximum possible over games, clamped to 0..100
func PerformancePercent(total, games int) int {
	if games <= 0 {
		return 0
	}
	pct := int(float64(total) / float64(games*MaxScorePerGame) * 100)
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
