package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/dialysis-locator-go/internal/ads"
	"github.com/jengzang/dialysis-locator-go/internal/dataset"
	"github.com/jengzang/dialysis-locator-go/internal/entitlement"
	"github.com/jengzang/dialysis-locator-go/internal/icons"
	"github.com/jengzang/dialysis-locator-go/internal/limits"
	"github.com/jengzang/dialysis-locator-go/internal/logger"
	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/repository"
	"github.com/jengzang/dialysis-locator-go/internal/service"
)

const secret = "router-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Upsell  bool            `json:"upsell"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	log := logger.Discard()
	kv := repository.NewMemoryKV()

	centers := make([]models.Center, 10)
	for i := range centers {
		centers[i] = models.Center{
			GeoPoint: models.GeoPoint{ID: fmt.Sprintf("c%d", i), Lat: 40 + float64(i)*0.01, Lng: -74, Category: "hemodialysis"},
			Name:     fmt.Sprintf("Harbor Dialysis %d", i),
		}
	}
	store := dataset.NewStore(centers)

	mapSvc := service.NewMapService(store, icons.NewCache(nil), kv, log)
	ent := entitlement.NewReconciler(kv, nil, nil, log)
	placement := ads.NewPlacement()
	gate := ads.NewGate(placement, ent, ads.DefaultRetryPolicy, log)
	access := service.NewAccessService(store, limits.New(kv, limits.WithLogger(log)), ent, gate, placement, kv, secret, log)
	t.Cleanup(func() {
		mapSvc.Close()
		access.Close()
	})

	return SetupRouter(Services{Map: mapSvc, Access: access}, log)
}

func do(t *testing.T, r http.Handler, method, path, body string, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return w, env
}

func TestHealth(t *testing.T) {
	w, _ := do(t, newRouter(t), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	w, _ := do(t, newRouter(t), http.MethodOptions, "/api/v1/map/view", "")
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", w.Code, w.Header())
	}
}

func TestMapView(t *testing.T) {
	w, env := do(t, newRouter(t), http.MethodGet, "/api/v1/map/view?north=40.2&south=39.9&east=-73.9&west=-74.1&zoom=12", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var view service.MapView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Points) != 10 || !view.ShowIndividual {
		t.Errorf("view = %d points, individual=%v", len(view.Points), view.ShowIndividual)
	}
}

func TestMapViewBadQuery(t *testing.T) {
	w, _ := do(t, newRouter(t), http.MethodGet, "/api/v1/map/view?zoom=high", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCameraEvents(t *testing.T) {
	r := newRouter(t)
	_, env := do(t, r, http.MethodPost, "/api/v1/map/camera/start", "")
	if string(env.Data) != `{"idle":false}` {
		t.Errorf("start = %s", env.Data)
	}
	_, env = do(t, r, http.MethodPost, "/api/v1/map/camera/end", "")
	if string(env.Data) != `{"idle":false}` {
		t.Errorf("end before settle = %s", env.Data)
	}
}

func TestIcon(t *testing.T) {
	w, _ := do(t, newRouter(t), http.MethodGet, "/api/v1/icons/Home", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("icon = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(w.Body.String(), "<svg") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestCenterQuota(t *testing.T) {
	r := newRouter(t)
	for i := 0; i < limits.MaxViews; i++ {
		w, _ := do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/centers/c%d", i), "")
		if w.Code != http.StatusOK {
			t.Fatalf("view %d: status %d", i, w.Code)
		}
	}
	w, env := do(t, r, http.MethodGet, "/api/v1/centers/c9", "")
	if w.Code != http.StatusTooManyRequests || !env.Upsell {
		t.Fatalf("sixth view = %d upsell=%v", w.Code, env.Upsell)
	}
	w, _ = do(t, r, http.MethodGet, "/api/v1/centers/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown center = %d", w.Code)
	}

	do(t, r, http.MethodPost, "/api/v1/entitlement/override", `{"enabled":true}`)
	w, _ = do(t, r, http.MethodGet, "/api/v1/centers/c9", "")
	if w.Code != http.StatusOK {
		t.Errorf("premium view = %d", w.Code)
	}
}

func TestSearchQuota(t *testing.T) {
	r := newRouter(t)
	for i := 0; i < limits.MaxSearches; i++ {
		if w, _ := do(t, r, http.MethodGet, "/api/v1/search?q=harbor", ""); w.Code != http.StatusOK {
			t.Fatalf("search %d: status %d", i, w.Code)
		}
	}
	w, env := do(t, r, http.MethodGet, "/api/v1/search?q=harbor", "")
	if w.Code != http.StatusTooManyRequests || !env.Upsell {
		t.Fatalf("sixth search = %d upsell=%v", w.Code, env.Upsell)
	}
}

func TestOverrideValidation(t *testing.T) {
	w, _ := do(t, newRouter(t), http.MethodPost, "/api/v1/entitlement/override", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSessionFlow(t *testing.T) {
	r := newRouter(t)

	if w, _ := do(t, r, http.MethodPost, "/api/v1/session/login", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("login without token = %d", w.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-7"}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	w, env := do(t, r, http.MethodPost, "/api/v1/session/login", "", "Authorization", "Bearer "+token)
	if w.Code != http.StatusOK || !strings.Contains(string(env.Data), `"user-7"`) {
		t.Fatalf("login = %d %s", w.Code, env.Data)
	}

	// No ledger is configured.
	w, _ = do(t, r, http.MethodPost, "/api/v1/entitlement/purchase", `{"package_id":"monthly"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("purchase = %d, want 503", w.Code)
	}

	do(t, r, http.MethodPost, "/api/v1/entitlement/override", `{"enabled":true}`)
	_, env = do(t, r, http.MethodPost, "/api/v1/session/logout", "")
	if string(env.Data) != `{"premium":false}` {
		t.Errorf("logout = %s", env.Data)
	}
}

func TestAdPlacement(t *testing.T) {
	r := newRouter(t)
	_, env := do(t, r, http.MethodGet, "/api/v1/ads/placement", "")
	var p service.AdPlacement
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	if !p.ShowAds || !p.BannerVisible {
		t.Errorf("free placement = %+v", p)
	}

	do(t, r, http.MethodPost, "/api/v1/entitlement/override", `{"enabled":true}`)
	_, env = do(t, r, http.MethodGet, "/api/v1/ads/placement", "")
	p = service.AdPlacement{}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	if p.ShowAds || p.BannerVisible {
		t.Errorf("premium placement = %+v", p)
	}
}
