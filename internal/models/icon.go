package models

// IconAsset is a generated marker pin for one category.
type IconAsset struct {
	Category string `json:"category"`
	Color    string `json:"color"`
	SVG      []byte `json:"-"`
}

// NativeIcon wraps an IconAsset with the size and anchor the native map
// runtime needs.
type NativeIcon struct {
	Asset   *IconAsset `json:"-"`
	Key     string     `json:"key"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	AnchorX float64    `json:"anchor_x"`
	AnchorY float64    `json:"anchor_y"`
}
