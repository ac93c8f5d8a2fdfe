package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/yegors/skyguess/pkg/logger"
)

// DestinationStorage remembers every real destination seen in a deep resolution
type DestinationStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDestinationStorage creates the destination storage
func NewDestinationStorage(db *sql.DB, log *logger.Logger) (*DestinationStorage, error) {
	s := &DestinationStorage{
		db:     db,
		logger: log.Named("sqlite-destinations"),
	}
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS destinations (
			city TEXT PRIMARY KEY,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create destinations table: %w", err)
	}
	return s, nil
}

// SaveDestination records city once. Placeholder values are ignored.
func (s *DestinationStorage) SaveDestination(city string) error {
	city = strings.TrimSpace(city)
	switch city {
	case "", "Unknown", "N/A":
		return nil
	}

	res, err := s.db.Exec(`INSERT OR IGNORE INTO destinations (city) VALUES (?)`, city)
	if err != nil {
		return fmt.Errorf("failed to save destination: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Debug("New destination recorded", logger.String("city", city))
	}
	return nil
}

// Destinations returns the known cities in sorted order
func (s *DestinationStorage) Destinations() ([]string, error) {
	rows, err := s.db.Query(`SELECT city FROM destinations ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer rows.Close()

	cities := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}
