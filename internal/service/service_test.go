package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/viewport"
)

// manualTimers runs scheduled functions only when fired.
type manualTimers struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	active := !t.stopped
	t.stopped = true
	return active
}

func (m *manualTimers) AfterFunc(_ time.Duration, f func()) viewport.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{fn: f}
	m.pending = append(m.pending, t)
	return t
}

// fire runs every timer that was not stopped.
func (m *manualTimers) fire() {
	m.mu.Lock()
	due := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, t := range due {
		if !t.stopped {
			t.stopped = true
			t.fn()
		}
	}
}

// sampleCenters lays n centers on a grid starting at (10, 20) with 0.1° steps.
func sampleCenters(n int) []models.Center {
	categories := []string{"hemodialysis", "home", "Peritoneal"}
	centers := make([]models.Center, n)
	for i := range centers {
		centers[i] = models.Center{
			GeoPoint: models.GeoPoint{
				ID:       fmt.Sprintf("c%d", i),
				Lat:      10 + float64(i%20)*0.1,
				Lng:      20 + float64(i/20)*0.1,
				Category: categories[i%len(categories)],
			},
			Name: fmt.Sprintf("Center %d", i),
			City: "Springfield",
		}
	}
	return centers
}

func ptr(v float64) *float64 { return &v }
