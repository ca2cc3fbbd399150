package viewport

import (
	"sync"

	"github.com/jengzang/dialysis-locator-go/internal/models"
)

const (
	// InitialSliceSize caps the result before any viewport is known.
	InitialSliceSize = 200
	// BufferFraction pads the viewport on each side by this share of its span.
	BufferFraction = 0.3
)

// MaxVisible returns the marker cap for a zoom level.
func MaxVisible(zoom int) int {
	switch {
	case zoom >= 10:
		return 500
	case zoom >= 7:
		return 200
	default:
		return 100
	}
}

// Culler filters the dataset down to the buffered viewport.
//
// While a gesture is in progress (isIdle false) it returns the previous
// result unchanged, so the rendered set stays stable mid-gesture. The
// returned slice is shared with the cache and must not be modified.
type Culler struct {
	mu      sync.Mutex
	prev    []models.GeoPoint
	hasPrev bool
}

// NewCuller creates a culler with no cached result.
func NewCuller() *Culler {
	return &Culler{}
}

// Cull returns the points to render for bounds at zoom.
// Truncation keeps the first points in input order.
func (c *Culler) Cull(points []models.GeoPoint, bounds *models.Bounds, zoom int, isIdle bool) []models.GeoPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !isIdle && c.hasPrev {
		return c.prev
	}

	var out []models.GeoPoint
	if bounds == nil {
		n := len(points)
		if n > InitialSliceSize {
			n = InitialSliceSize
		}
		out = make([]models.GeoPoint, n)
		copy(out, points[:n])
	} else {
		out = InBuffer(points, *bounds, MaxVisible(zoom))
	}

	c.prev = out
	c.hasPrev = true
	return out
}

// Reset drops the cached result.
func (c *Culler) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prev = nil
	c.hasPrev = false
}

// InBuffer returns the points inside bounds padded by BufferFraction, in
// input order, stopping at limit. A limit of zero or less means no cap.
func InBuffer(points []models.GeoPoint, bounds models.Bounds, limit int) []models.GeoPoint {
	if limit <= 0 || limit > len(points) {
		limit = len(points)
	}
	box := bounds.Expand(BufferFraction)
	out := make([]models.GeoPoint, 0, limit)
	for _, p := range points {
		if len(out) == limit {
			break
		}
		if box.Contains(p.Lat, p.Lng) {
			out = append(out, p)
		}
	}
	return out
}
