package models

// ViewportFilter represents the query parameters of a map view request.
// Bounds are only applied when all four edges are present.
type ViewportFilter struct {
	North *float64 `form:"north"`
	South *float64 `form:"south"`
	East  *float64 `form:"east"`
	West  *float64 `form:"west"`
	Zoom  int      `form:"zoom"`
}

// Bounds returns the filter bounds, or nil when any edge is missing.
func (f ViewportFilter) Bounds() *Bounds {
	if f.North == nil || f.South == nil || f.East == nil || f.West == nil {
		return nil
	}
	return &Bounds{North: *f.North, South: *f.South, East: *f.East, West: *f.West}
}

// SearchFilter represents the query parameters of a center search.
type SearchFilter struct {
	Query    string `form:"q"`
	Category string `form:"category"`
	Limit    int    `form:"limit"` // Max results, default 20
}
