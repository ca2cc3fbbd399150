package spatial

import (
	"math"
	"testing"
)

func TestGeohashRoundTrip(t *testing.T) {
	// Well-known reference value.
	if got := EncodeGeohash(57.64911, 10.40744, 11); got != "u4pruydqqvj" {
		t.Fatalf("EncodeGeohash = %q, want u4pruydqqvj", got)
	}

	lat, lon := DecodeGeohash(EncodeGeohash(41.8781, -87.6298, 9))
	if math.Abs(lat-41.8781) > 0.0001 || math.Abs(lon+87.6298) > 0.0001 {
		t.Fatalf("decoded (%f, %f), want about (41.8781, -87.6298)", lat, lon)
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]Point{{Lat: 10, Lon: 10}, {Lat: 12, Lon: 12}})
	if c.Lat != 11 || c.Lon != 11 {
		t.Fatalf("centroid = %+v, want (11, 11)", c)
	}
	if (Centroid(nil) != Point{}) {
		t.Fatal("centroid of empty set should be zero")
	}
}

func TestMaxDistance(t *testing.T) {
	center := Point{Lat: 0, Lon: 0}
	// One degree of longitude on the equator is about 111.2 km.
	d := MaxDistance(center, []Point{{Lat: 0, Lon: 0.5}, {Lat: 0, Lon: 1}})
	if math.Abs(d-111195) > 100 {
		t.Fatalf("max distance = %f, want about 111195", d)
	}
	if MaxDistance(center, nil) != 0 {
		t.Fatal("max distance of empty set should be 0")
	}
	if h := HaversineDistance(0, 0, 0, 1); math.Abs(h-d) > 1e-6 {
		t.Fatalf("haversine %f disagrees with max distance %f", h, d)
	}
}
