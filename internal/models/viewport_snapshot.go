package models

import "time"

// ViewportSnapshot is the last-known camera position, restored on the next mount.
type ViewportSnapshot struct {
	Geohash string    `json:"geohash"` // camera center
	Zoom    int       `json:"zoom"`
	SavedAt time.Time `json:"saved_at"`
}
