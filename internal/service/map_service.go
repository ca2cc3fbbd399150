package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jengzang/dialysis-locator-go/internal/dataset"
	"github.com/jengzang/dialysis-locator-go/internal/icons"
	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/repository"
	"github.com/jengzang/dialysis-locator-go/internal/spatial"
	"github.com/jengzang/dialysis-locator-go/internal/viewport"
)

const (
	// SnapshotKey holds the last settled viewport.
	SnapshotKey = "last_viewport"

	snapshotPrecision = 9
	snapshotTimeout   = 5 * time.Second
)

// MapView is one render pass of the map.
type MapView struct {
	Idle           bool                          `json:"idle"`
	Zoom           int                           `json:"zoom"`
	Points         []models.GeoPoint             `json:"points"`
	Clusters       []models.Cluster              `json:"clusters"`
	ShowIndividual bool                          `json:"show_individual"`
	Icons          map[string]string             `json:"icons"` // key -> color
	Native         map[string]*models.NativeIcon `json:"native,omitempty"`
	GeoJSON        *viewport.FeatureCollection   `json:"geojson"`
}

// RestoredViewport is a saved snapshot with its decoded center.
type RestoredViewport struct {
	models.ViewportSnapshot
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MapService drives the render pipeline: camera state gates culling and
// clustering, and the icon cache supplies assets for what is visible.
type MapService struct {
	store     *dataset.Store
	icons     *icons.Cache
	kv        repository.KVStore
	detector  *viewport.IdleDetector
	culler    *viewport.Culler
	clusterer *viewport.Clusterer
	log       logrus.FieldLogger
	now       func() time.Time

	mu    sync.Mutex
	state models.ViewportState
}

// NewMapService creates a map service. opts configure the idle detector.
func NewMapService(store *dataset.Store, iconCache *icons.Cache, kv repository.KVStore, log logrus.FieldLogger, opts ...viewport.IdleOption) *MapService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &MapService{
		store:     store,
		icons:     iconCache,
		kv:        kv,
		culler:    viewport.NewCuller(),
		clusterer: viewport.NewClusterer(),
		log:       log,
		now:       time.Now,
	}
	opts = append(opts, viewport.WithOnIdle(s.saveSnapshot))
	s.detector = viewport.NewIdleDetector(opts...)
	s.state.IsIdle = true
	return s
}

// MovementStart handles the camera movement-start event.
func (s *MapService) MovementStart() bool {
	s.detector.OnMovementStart()
	return s.detector.IsIdle()
}

// MovementEnd handles the camera movement-end event. The camera settles
// after viewport.SettleDelay.
func (s *MapService) MovementEnd() bool {
	s.detector.OnMovementEnd()
	return s.detector.IsIdle()
}

// IsIdle reports whether the camera has settled.
func (s *MapService) IsIdle() bool {
	return s.detector.IsIdle()
}

// View culls and clusters the dataset for the requested viewport.
func (s *MapService) View(filter models.ViewportFilter) MapView {
	idle := s.detector.IsIdle()
	bounds := filter.Bounds()

	s.mu.Lock()
	s.state = models.ViewportState{Bounds: bounds, Zoom: filter.Zoom, IsIdle: idle}
	s.mu.Unlock()

	points := s.store.Points()
	visible := s.culler.Cull(points, bounds, filter.Zoom, idle)

	// Clusters count every point in the buffered viewport, not just the
	// capped marker set.
	inView := points
	if bounds != nil && filter.Zoom < viewport.ClusterMaxZoom {
		inView = viewport.InBuffer(points, *bounds, 0)
	}
	result := s.clusterer.Cluster(inView, filter.Zoom, idle)

	view := MapView{
		Idle:           idle,
		Zoom:           filter.Zoom,
		Points:         visible,
		Clusters:       result.Clusters,
		ShowIndividual: result.ShowIndividual,
		Icons:          make(map[string]string),
		GeoJSON:        viewport.ToGeoJSON(result, visible, s.icons.Normalize),
	}
	if view.Points == nil {
		view.Points = []models.GeoPoint{}
	}
	if view.Clusters == nil {
		view.Clusters = []models.Cluster{}
	}

	categories := make([]string, 0, len(visible))
	if result.ShowIndividual {
		for _, p := range visible {
			categories = append(categories, p.Category)
		}
	} else {
		for _, c := range result.Clusters {
			categories = append(categories, c.DominantCategory)
		}
	}
	for _, category := range categories {
		asset := s.icons.Get(category)
		key := s.icons.Normalize(category)
		view.Icons[key] = asset.Color
		if native := s.icons.Native(category); native != nil {
			if view.Native == nil {
				view.Native = make(map[string]*models.NativeIcon)
			}
			view.Native[key] = native
		}
	}
	return view
}

// Icon returns the cached asset for category.
func (s *MapService) Icon(category string) *models.IconAsset {
	return s.icons.Get(category)
}

// ClearIcons drops cached icons, e.g. on memory pressure.
func (s *MapService) ClearIcons() {
	s.icons.Clear()
	s.log.Info("[Map] icon cache cleared")
}

// Reload swaps the dataset and drops cached render results.
func (s *MapService) Reload(centers []models.Center) {
	s.store.Replace(centers)
	s.culler.Reset()
	s.clusterer.Reset()
	s.log.Infof("[Map] dataset reloaded: %d centers", s.store.Len())
}

// LastViewport returns the last settled viewport, if one was saved.
func (s *MapService) LastViewport(ctx context.Context) (*RestoredViewport, bool) {
	raw, ok, err := s.kv.Get(ctx, SnapshotKey)
	if err != nil {
		s.log.Warnf("[Map] read viewport snapshot: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var snap models.ViewportSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap.Geohash == "" {
		return nil, false
	}
	lat, lng := spatial.DecodeGeohash(snap.Geohash)
	return &RestoredViewport{ViewportSnapshot: snap, Lat: lat, Lng: lng}, true
}

// Close stops the idle detector.
func (s *MapService) Close() {
	s.detector.Close()
}

// saveSnapshot runs when the camera settles.
func (s *MapService) saveSnapshot() {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state.Bounds == nil {
		return
	}

	lat, lng := state.Bounds.Center()
	snap := models.ViewportSnapshot{
		Geohash: spatial.EncodeGeohash(lat, lng, snapshotPrecision),
		Zoom:    state.Zoom,
		SavedAt: s.now(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, SnapshotKey, string(data)); err != nil {
		s.log.Warnf("[Map] save viewport snapshot: %v", err)
	}
}
