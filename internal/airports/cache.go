package airports

import (
	"sync"

	"github.com/yegors/skyguess/pkg/logger"
)

// Cache maps IATA codes to resolved city names.
// Entries are never evicted; the cache lives as long as its owner.
type Cache struct {
	cities map[string]string
	logger *logger.Logger
	mu     sync.RWMutex
}

// NewCache creates an empty airport cache
func NewCache(log *logger.Logger) *Cache {
	return &Cache{
		cities: make(map[string]string),
		logger: log.Named("airport-cache"),
	}
}

// Get returns the cached city for code
func (c *Cache) Get(code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	city, ok := c.cities[code]
	return city, ok
}

// Set stores the city for code. Writing the same value twice is harmless.
func (c *Cache) Set(code, city string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cities[code] = city

	c.logger.Debug("Airport city cached",
		logger.String("iata", code),
		logger.String("city", city),
		logger.Int("cache_size", len(c.cities)))
}

// Len returns the number of cached codes
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cities)
}
