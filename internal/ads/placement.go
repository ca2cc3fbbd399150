package ads

import "sync"

// PlacementState is what the UI shell should currently render.
type PlacementState struct {
	BannerVisible     bool `json:"banner_visible"`
	InterstitialReady bool `json:"interstitial_ready"`
	Interstitials     int  `json:"interstitials_shown"`
}

// Placement is a Provider for a headless host: instead of driving an ad SDK
// it records the requested placement for the UI shell to read.
type Placement struct {
	mu    sync.Mutex
	state PlacementState
}

var _ Provider = (*Placement)(nil)

// NewPlacement creates an empty placement.
func NewPlacement() *Placement {
	return &Placement{}
}

// State returns the current placement.
func (p *Placement) State() PlacementState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Placement) ShowBanner() error {
	p.mu.Lock()
	p.state.BannerVisible = true
	p.mu.Unlock()
	return nil
}

func (p *Placement) HideBanner() error {
	p.mu.Lock()
	p.state.BannerVisible = false
	p.mu.Unlock()
	return nil
}

func (p *Placement) PrepareInterstitial() error {
	p.mu.Lock()
	p.state.InterstitialReady = true
	p.mu.Unlock()
	return nil
}

func (p *Placement) ShowInterstitial() error {
	p.mu.Lock()
	p.state.InterstitialReady = false
	p.state.Interstitials++
	p.mu.Unlock()
	return nil
}
