package models

// GeoPoint is a single map marker. Immutable once loaded.
type GeoPoint struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Category string  `json:"category"`
}

// Center is a dialysis center as read from the dataset: its marker plus the
// fields shown on the detail screen.
type Center struct {
	GeoPoint
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Bounds is the visible map region in degrees.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether the point lies inside b, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// Expand grows b by fraction of its span on each axis, on every side.
func (b Bounds) Expand(fraction float64) Bounds {
	latPad := (b.North - b.South) * fraction
	lngPad := (b.East - b.West) * fraction
	return Bounds{
		North: b.North + latPad,
		South: b.South - latPad,
		East:  b.East + lngPad,
		West:  b.West - lngPad,
	}
}

// Center returns the midpoint of b.
func (b Bounds) Center() (lat, lng float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// ViewportState is the camera state for one map-view mount.
// Bounds is nil until the first bounds-changed event.
type ViewportState struct {
	Bounds *Bounds `json:"bounds"`
	Zoom   int     `json:"zoom"`
	IsIdle bool    `json:"is_idle"`
}
