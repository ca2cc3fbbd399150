// Package ads gates the ad network behind the premium flag. While the user
// is premium no Provider method is called.
package ads

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Provider is the ad network runtime.
type Provider interface {
	ShowBanner() error
	HideBanner() error
	PrepareInterstitial() error
	ShowInterstitial() error
}

// PremiumSource reports the current entitlement.
type PremiumSource interface {
	IsPremium() bool
}

// Gate forwards ad calls to a Provider for free-tier users only.
type Gate struct {
	mu       sync.Mutex
	provider Provider
	premium  PremiumSource
	policy   RetryPolicy
	log      logrus.FieldLogger

	// ctx outlives requests; preloads run under it until Close.
	ctx    context.Context
	cancel context.CancelFunc

	bannerShown bool
	ready       bool
	preloading  bool
	preload     *Task
	closed      bool
}

// NewGate creates a gate over provider.
func NewGate(provider Provider, premium PremiumSource, policy RetryPolicy, log logrus.FieldLogger) *Gate {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Gate{
		provider: provider,
		premium:  premium,
		policy:   policy,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ShouldShowAds reports whether ads may be shown at all.
func (g *Gate) ShouldShowAds() bool {
	return !g.premium.IsPremium()
}

// ShowBanner shows the banner for free-tier users. It reports whether the
// banner is showing.
func (g *Gate) ShowBanner() bool {
	if g.premium.IsPremium() {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	if g.bannerShown {
		return true
	}
	if err := g.provider.ShowBanner(); err != nil {
		g.log.Warnf("[Ads] show banner failed: %v", err)
		return false
	}
	g.bannerShown = true
	return true
}

// HideBanner hides the banner if it is showing.
func (g *Gate) HideBanner() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hideLocked()
}

func (g *Gate) hideLocked() {
	if !g.bannerShown {
		return
	}
	if err := g.provider.HideBanner(); err != nil {
		g.log.Warnf("[Ads] hide banner failed: %v", err)
		return
	}
	g.bannerShown = false
}

// Preload prepares an interstitial in the background, retrying failures.
// A preload already in flight is left alone.
func (g *Gate) Preload() {
	if g.premium.IsPremium() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.preloadLocked()
}

func (g *Gate) preloadLocked() {
	if g.closed || g.ready || g.preloading {
		return
	}
	g.preloading = true
	task := Schedule(g.ctx, g.policy, func(context.Context) error {
		if g.premium.IsPremium() {
			return nil
		}
		if err := g.provider.PrepareInterstitial(); err != nil {
			g.log.Debugf("[Ads] interstitial not ready yet: %v", err)
			return err
		}
		g.mu.Lock()
		g.ready = true
		g.preloading = false
		g.mu.Unlock()
		return nil
	})
	g.preload = task

	go func() {
		<-task.Done()
		g.mu.Lock()
		if g.preload == task {
			g.preload = nil
			g.preloading = false
		}
		g.mu.Unlock()
	}()
}

// ShowInterstitial shows a prepared interstitial and starts preparing the
// next one. It reports whether an ad was shown.
func (g *Gate) ShowInterstitial() bool {
	if g.premium.IsPremium() {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	if !g.ready {
		g.preloadLocked()
		return false
	}
	g.ready = false
	err := g.provider.ShowInterstitial()
	g.preloadLocked()
	if err != nil {
		g.log.Warnf("[Ads] show interstitial failed: %v", err)
		return false
	}
	return true
}

// OnPremiumChanged hides ads and stops preloading when the user becomes premium.
func (g *Gate) OnPremiumChanged(premium bool) {
	if !premium {
		return
	}
	g.mu.Lock()
	g.hideLocked()
	task := g.preload
	g.preload = nil
	g.preloading = false
	g.mu.Unlock()

	if task != nil {
		task.Cancel()
	}
}

// Close stops any background preload. The gate shows nothing afterwards.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	task := g.preload
	g.preload = nil
	g.preloading = false
	g.mu.Unlock()

	g.cancel()
	if task != nil {
		task.Cancel()
	}
}
