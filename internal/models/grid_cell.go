package models

// Cluster is one non-empty grid cell at low zoom.
// Recomputed wholesale on each idle recompute; never partially mutated.
type Cluster struct {
	ID string `json:"id"` // grid cell key, "{row}:{col}"

	// Centroid (arithmetic mean of members)
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	Count            int        `json:"count"`
	Members          []GeoPoint `json:"members"`
	DominantCategory string     `json:"dominant_category"`

	// Largest great-circle distance from the centroid to a member
	RadiusMeters float64 `json:"radius_meters"`
}

// ClusterResult is the output of one clustering pass.
type ClusterResult struct {
	Clusters       []Cluster `json:"clusters"`
	ShowIndividual bool      `json:"show_individual"`
}
