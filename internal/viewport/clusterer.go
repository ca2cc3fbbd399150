package viewport

import (
	"fmt"
	"math"
	"sync"

	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/spatial"
)

// ClusterMaxZoom is the first zoom level at which points render individually.
const ClusterMaxZoom = 9

// CellSize returns the grid cell size in degrees for a zoom level.
func CellSize(zoom int) float64 {
	switch {
	case zoom <= 5:
		return 2.0
	case zoom <= 7:
		return 1.0
	default:
		return 0.5
	}
}

// CellKey returns the grid cell a coordinate falls in.
func CellKey(lat, lng, cellSize float64) string {
	return fmt.Sprintf("%d:%d", int(math.Floor(lat/cellSize)), int(math.Floor(lng/cellSize)))
}

// Clusterer buckets points into a coarse grid at low zoom.
// Mid-gesture calls return the previous cluster list.
type Clusterer struct {
	mu      sync.Mutex
	prev    []models.Cluster
	hasPrev bool
}

// NewClusterer creates a clusterer with no cached result.
func NewClusterer() *Clusterer {
	return &Clusterer{}
}

// Cluster groups points for zoom. At ClusterMaxZoom and above clustering is
// off and the caller renders each point.
func (c *Clusterer) Cluster(points []models.GeoPoint, zoom int, isIdle bool) models.ClusterResult {
	if zoom >= ClusterMaxZoom {
		return models.ClusterResult{Clusters: []models.Cluster{}, ShowIndividual: true}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !isIdle && c.hasPrev {
		return models.ClusterResult{Clusters: c.prev}
	}

	clusters := buildClusters(points, CellSize(zoom))
	c.prev = clusters
	c.hasPrev = true
	return models.ClusterResult{Clusters: clusters}
}

// Reset drops the cached result.
func (c *Clusterer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prev = nil
	c.hasPrev = false
}

// buildClusters assigns points to cells. Cells come out in the order their
// first member was seen.
func buildClusters(points []models.GeoPoint, cellSize float64) []models.Cluster {
	cells := make(map[string][]models.GeoPoint)
	var order []string
	for _, p := range points {
		key := CellKey(p.Lat, p.Lng, cellSize)
		if _, ok := cells[key]; !ok {
			order = append(order, key)
		}
		cells[key] = append(cells[key], p)
	}

	clusters := make([]models.Cluster, 0, len(order))
	for _, key := range order {
		members := cells[key]
		pts := make([]spatial.Point, len(members))
		for i, m := range members {
			pts[i] = spatial.Point{Lat: m.Lat, Lon: m.Lng}
		}
		center := spatial.Centroid(pts)

		clusters = append(clusters, models.Cluster{
			ID:               key,
			Lat:              center.Lat,
			Lng:              center.Lon,
			Count:            len(members),
			Members:          members,
			DominantCategory: dominantCategory(members),
			RadiusMeters:     spatial.MaxDistance(center, pts),
		})
	}
	return clusters
}

// dominantCategory returns the most common category; on a tie the one
// seen first wins.
func dominantCategory(members []models.GeoPoint) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range members {
		if counts[m.Category] == 0 {
			order = append(order, m.Category)
		}
		counts[m.Category]++
	}

	best, bestCount := "", 0
	for _, cat := range order {
		if counts[cat] > bestCount {
			best, bestCount = cat, counts[cat]
		}
	}
	return best
}
