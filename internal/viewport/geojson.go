package viewport

import (
	"github.com/jengzang/dialysis-locator-go/internal/models"
)

// GeoJSON types
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lng, lat]
}

// ToGeoJSON renders either the clusters or, when result.ShowIndividual is
// set, the visible points. iconKey maps a category to its icon cache key.
func ToGeoJSON(result models.ClusterResult, visible []models.GeoPoint, iconKey func(string) string) *FeatureCollection {
	features := []Feature{}

	if result.ShowIndividual {
		features = make([]Feature, len(visible))
		for i, p := range visible {
			features[i] = pointFeature(p.Lng, p.Lat, map[string]interface{}{
				"cluster":  false,
				"id":       p.ID,
				"category": p.Category,
				"icon":     iconKey(p.Category),
			})
		}
	} else {
		features = make([]Feature, len(result.Clusters))
		for i, c := range result.Clusters {
			features[i] = pointFeature(c.Lng, c.Lat, map[string]interface{}{
				"cluster":           c.Count > 1,
				"cluster_id":        c.ID,
				"point_count":       c.Count,
				"dominant_category": c.DominantCategory,
				"radius_meters":     c.RadiusMeters,
				"icon":              iconKey(c.DominantCategory),
			})
		}
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

func pointFeature(lng, lat float64, properties map[string]interface{}) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{lng, lat},
		},
		Properties: properties,
	}
}
