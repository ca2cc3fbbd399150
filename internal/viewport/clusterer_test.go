package viewport

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/jengzang/dialysis-locator-go/internal/models"
)

func TestClusterDisabledAtHighZoom(t *testing.T) {
	for _, zoom := range []int{9, 10, 18} {
		res := NewClusterer().Cluster(grid(10, 0, 0, 0.01), zoom, true)
		if !res.ShowIndividual {
			t.Errorf("zoom %d: expected ShowIndividual", zoom)
		}
		if res.Clusters == nil || len(res.Clusters) != 0 {
			t.Errorf("zoom %d: expected an empty, non-nil cluster list", zoom)
		}
	}
}

func TestCellSize(t *testing.T) {
	cases := map[int]float64{0: 2.0, 5: 2.0, 6: 1.0, 7: 1.0, 8: 0.5}
	for zoom, want := range cases {
		if got := CellSize(zoom); got != want {
			t.Errorf("CellSize(%d) = %v, want %v", zoom, got, want)
		}
	}
}

func TestClusterCentroid(t *testing.T) {
	points := []models.GeoPoint{
		{ID: "a", Lat: 10.5, Lng: 10.5, Category: "home"},
		{ID: "b", Lat: 11.5, Lng: 11.5, Category: "home"},
	}

	res := NewClusterer().Cluster(points, 5, true)
	if res.ShowIndividual {
		t.Fatal("expected clustering at zoom 5")
	}
	if len(res.Clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(res.Clusters))
	}
	c := res.Clusters[0]
	if c.Count != 2 || c.Lat != 11 || c.Lng != 11 {
		t.Fatalf("expected count 2 at (11, 11), got %d at (%v, %v)", c.Count, c.Lat, c.Lng)
	}
	if c.ID != "5:5" {
		t.Errorf("expected cell key 5:5, got %s", c.ID)
	}
	if c.DominantCategory != "home" {
		t.Errorf("expected dominant category home, got %s", c.DominantCategory)
	}
	if c.RadiusMeters <= 0 {
		t.Errorf("expected a positive radius, got %v", c.RadiusMeters)
	}
}

func TestClusterCellEdgeUsesFloor(t *testing.T) {
	// 12/2.0 floors to the next cell, so these land apart.
	points := []models.GeoPoint{
		{ID: "a", Lat: 10, Lng: 10},
		{ID: "b", Lat: 12, Lng: 12},
	}
	res := NewClusterer().Cluster(points, 5, true)
	if len(res.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(res.Clusters))
	}
	if res.Clusters[0].ID != "5:5" || res.Clusters[1].ID != "6:6" {
		t.Fatalf("unexpected cell keys %s, %s", res.Clusters[0].ID, res.Clusters[1].ID)
	}
}

func TestClusterNegativeCoordinates(t *testing.T) {
	points := []models.GeoPoint{
		{ID: "a", Lat: -0.2, Lng: -0.2},
		{ID: "b", Lat: 0.2, Lng: 0.2},
	}
	res := NewClusterer().Cluster(points, 8, true)
	if len(res.Clusters) != 2 {
		t.Fatalf("expected points either side of zero to split, got %d clusters", len(res.Clusters))
	}
	if res.Clusters[0].ID != "-1:-1" {
		t.Errorf("expected cell -1:-1, got %s", res.Clusters[0].ID)
	}
}

func TestClusterDominantCategory(t *testing.T) {
	cases := []struct {
		name string
		cats []string
		want string
	}{
		{"majority", []string{"home", "pediatric", "pediatric"}, "pediatric"},
		{"tie keeps first seen", []string{"nocturnal", "home", "home", "nocturnal"}, "nocturnal"},
		{"single", []string{"peritoneal"}, "peritoneal"},
	}
	for _, tc := range cases {
		points := make([]models.GeoPoint, len(tc.cats))
		for i, cat := range tc.cats {
			points[i] = models.GeoPoint{Lat: 0.1, Lng: 0.1, Category: cat}
		}
		res := NewClusterer().Cluster(points, 3, true)
		if got := res.Clusters[0].DominantCategory; got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestClusterMidGestureReturnsCachedResult(t *testing.T) {
	c := NewClusterer()
	first := c.Cluster([]models.GeoPoint{{ID: "a", Lat: 1, Lng: 1}}, 4, true)

	got := c.Cluster(grid(50, 30, 30, 0.1), 6, false)
	if len(got.Clusters) != 1 || &got.Clusters[0] != &first.Clusters[0] {
		t.Fatal("expected the cached clusters while moving")
	}

	got = c.Cluster(grid(50, 30, 30, 0.1), 6, true)
	if got.Clusters[0].ID == first.Clusters[0].ID {
		t.Fatal("expected a recompute once idle")
	}
}

func TestClusterEmptyInput(t *testing.T) {
	res := NewClusterer().Cluster(nil, 3, true)
	if res.ShowIndividual || len(res.Clusters) != 0 {
		t.Fatalf("expected no clusters, got %+v", res)
	}
}

func TestToGeoJSON(t *testing.T) {
	key := func(cat string) string { return "icon-" + cat }

	clusters := NewClusterer().Cluster([]models.GeoPoint{
		{ID: "a", Lat: 10.5, Lng: 20.5, Category: "home"},
		{ID: "b", Lat: 10.7, Lng: 20.7, Category: "home"},
	}, 5, true)
	fc := ToGeoJSON(clusters, nil, key)
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	f := fc.Features[0]
	if f.Properties["point_count"] != 2 || f.Properties["icon"] != "icon-home" {
		t.Errorf("unexpected properties %v", f.Properties)
	}
	if math.Abs(f.Geometry.Coordinates[0]-20.6) > 1e-9 || math.Abs(f.Geometry.Coordinates[1]-10.6) > 1e-9 {
		t.Errorf("expected [lng, lat] coordinates, got %v", f.Geometry.Coordinates)
	}

	visible := []models.GeoPoint{{ID: "x", Lat: 1, Lng: 2, Category: "pediatric"}}
	fc = ToGeoJSON(models.ClusterResult{ShowIndividual: true}, visible, key)
	if len(fc.Features) != 1 || fc.Features[0].Properties["id"] != "x" {
		t.Fatalf("unexpected individual features %+v", fc.Features)
	}
}

func TestToGeoJSONEmptyEncodesArray(t *testing.T) {
	key := func(cat string) string { return cat }
	for _, res := range []models.ClusterResult{{}, {ShowIndividual: true}} {
		fc := ToGeoJSON(res, nil, key)
		if fc.Features == nil {
			t.Fatalf("features should be non-nil for %+v", res)
		}
		raw, err := json.Marshal(fc)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(raw), `"features":[]`) {
			t.Errorf("expected empty features array, got %s", raw)
		}
	}
}
