package dataset

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/jengzang/dialysis-locator-go/internal/models"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 20

// Store holds the loaded centers in load order with an ID index.
type Store struct {
	mu      sync.RWMutex
	centers []models.Center
	points  []models.GeoPoint
	byID    map[string]int
}

// NewStore indexes centers. Later duplicates of an ID are dropped.
func NewStore(centers []models.Center) *Store {
	s := &Store{}
	s.Replace(centers)
	return s
}

// Replace swaps the dataset.
func (s *Store) Replace(centers []models.Center) {
	kept := make([]models.Center, 0, len(centers))
	byID := make(map[string]int, len(centers))
	for _, c := range centers {
		if _, dup := byID[c.ID]; dup {
			continue
		}
		byID[c.ID] = len(kept)
		kept = append(kept, c)
	}
	points := make([]models.GeoPoint, len(kept))
	for i, c := range kept {
		points[i] = c.GeoPoint
	}

	s.mu.Lock()
	s.centers, s.points, s.byID = kept, points, byID
	s.mu.Unlock()
}

// Points returns the markers in load order. The slice must not be modified.
func (s *Store) Points() []models.GeoPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points
}

// Len returns the number of centers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.centers)
}

// Get returns the center with the given ID.
func (s *Store) Get(id string) (models.Center, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.Center{}, false
	}
	return s.centers[i], true
}

// Search matches the query against name, city and address, case-insensitively.
func (s *Store) Search(filter models.SearchFilter) []models.Center {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	// A Caser is stateful, so each search gets its own.
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(filter.Query))
	category := fold.String(strings.TrimSpace(filter.Category))

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.Center, 0)
	for _, c := range s.centers {
		if category != "" && fold.String(c.Category) != category {
			continue
		}
		if query != "" && !matches(fold, c, query) {
			continue
		}
		results = append(results, c)
		if len(results) == limit {
			break
		}
	}
	return results
}

func matches(fold cases.Caser, c models.Center, query string) bool {
	for _, field := range []string{c.Name, c.City, c.Address} {
		if strings.Contains(fold.String(field), query) {
			return true
		}
	}
	return false
}
