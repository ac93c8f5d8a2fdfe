package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/yegors/skyguess/pkg/logger"
)

// DefaultLeaderboardSize is how many high scores are kept
const DefaultLeaderboardSize = 10

// ScoreEntry is one leaderboard row
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Date  string `json:"date"`
}

// ScoreStorage keeps a bounded, score-ordered leaderboard
type ScoreStorage struct {
	db     *sql.DB
	limit  int
	logger *logger.Logger
}

// NewScoreStorage creates the leaderboard storage, keeping at most limit entries
func NewScoreStorage(db *sql.DB, limit int, log *logger.Logger) (*ScoreStorage, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	s := &ScoreStorage{
		db:     db,
		limit:  limit,
		logger: log.Named("sqlite-scores"),
	}
	if err := s.initDB(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ScoreStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			date TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scores table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC)`)
	if err != nil {
		return fmt.Errorf("failed to create scores index: %w", err)
	}
	return nil
}

// AddScore records entry and trims the table to the top entries.
// Ties keep the earlier entry ahead. The resulting leaderboard is returned.
func (s *ScoreStorage) AddScore(entry ScoreEntry) ([]ScoreEntry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO scores (name, score, date) VALUES (?, ?, ?)`,
		entry.Name, entry.Score, entry.Date); err != nil {
		return nil, fmt.Errorf("failed to insert score: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM scores WHERE id NOT IN (
			SELECT id FROM scores ORDER BY score DESC, id ASC LIMIT ?
		)`, s.limit); err != nil {
		return nil, fmt.Errorf("failed to trim scores: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit score: %w", err)
	}

	s.logger.Debug("Score recorded",
		logger.String("name", entry.Name),
		logger.Int("score", entry.Score))

	return s.HighScores()
}

// HighScores returns the leaderboard, best first
func (s *ScoreStorage) HighScores() ([]ScoreEntry, error) {
	rows, err := s.db.Query(`SELECT name, score, date FROM scores ORDER BY score DESC, id ASC LIMIT ?`, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	scores := make([]ScoreEntry, 0, s.limit)
	for rows.Next() {
		var e ScoreEntry
		if err := rows.Scan(&e.Name, &e.Score, &e.Date); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return scores, nil
}
