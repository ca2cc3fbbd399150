// Package entitlement decides whether the user is premium.
//
// Two slots are persisted independently: a local override and the last
// status confirmed by a remote source. IsPremium is evaluated from both on
// every read, override first, so the order in which the slots were written
// never matters.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/repository"
)

// KV keys of the persisted slots.
const (
	OverrideKey  = "premium_override"
	ConfirmedKey = "premium_confirmed"
)

// writeThroughTimeout bounds the fire-and-forget profile update.
const writeThroughTimeout = 15 * time.Second

// ErrNoUser is returned by remote operations when no user is signed in.
var ErrNoUser = errors.New("no signed-in user")

// ErrNoLedger is returned by Purchase and Restore when no ledger is configured.
var ErrNoLedger = errors.New("no purchase ledger configured")

// ErrIdentityChanged is returned by Purchase and Restore when the user
// signed out or switched while the ledger call was in flight. The ledger
// result is dropped.
var ErrIdentityChanged = errors.New("identity changed during ledger call")

// Ledger is the purchase ledger, the source of truth for entitlements.
type Ledger interface {
	GetStatus(ctx context.Context, userID string) (models.LedgerStatus, error)
	Purchase(ctx context.Context, userID, packageID string) (models.LedgerStatus, error)
	Restore(ctx context.Context, userID string) (models.LedgerStatus, error)
}

// ProfileStore holds a denormalized copy of the premium flag for other readers.
type ProfileStore interface {
	SetPremiumFlag(ctx context.Context, userID string, premium bool) error
}

// Reconciler merges the override, the confirmed remote status and the
// default into one premium flag.
type Reconciler struct {
	mu        sync.Mutex
	state     models.EntitlementState
	listeners []func(bool)

	// epoch changes whenever the identity does. Ledger replies carry the
	// epoch they were requested under and are dropped if it moved on.
	user  string
	epoch uint64

	store   repository.KVStore
	ledger  Ledger
	profile ProfileStore
	log     logrus.FieldLogger

	// wg tracks background goroutines so tests and shutdown can wait.
	wg sync.WaitGroup
}

// NewReconciler creates a reconciler. ledger and profile may be nil when
// no remote is configured.
func NewReconciler(store repository.KVStore, ledger Ledger, profile ProfileStore, log logrus.FieldLogger) *Reconciler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reconciler{
		store:   store,
		ledger:  ledger,
		profile: profile,
		log:     log,
	}
}

// Load reads both persisted slots. A slot that cannot be read keeps its
// in-memory value; a malformed value reads as false.
func (r *Reconciler) Load(ctx context.Context) bool {
	r.mu.Lock()
	before := r.state.IsPremium()
	if v, ok := r.readSlot(ctx, OverrideKey); ok {
		r.state.Override = v
	}
	if v, ok := r.readSlot(ctx, ConfirmedKey); ok {
		r.state.ConfirmedRemote = v
	}
	after, notify := r.commitLocked(before)
	r.mu.Unlock()

	notify()
	return after
}

// Start loads the persisted slots for an immediate answer, then reconciles
// with the ledger in the background. The background check can upgrade the
// flag but never clears an active override.
func (r *Reconciler) Start(ctx context.Context, userID string) bool {
	r.mu.Lock()
	if userID != r.user {
		r.user = userID
		r.epoch++
	}
	epoch := r.epoch
	r.mu.Unlock()

	premium := r.Load(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.reconcile(ctx, epoch, userID)
	}()
	return premium
}

// IsPremium reports the current premium flag.
func (r *Reconciler) IsPremium() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.IsPremium()
}

// State returns both slots.
func (r *Reconciler) State() models.EntitlementState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetOverride sets the local override. An override of true holds until
// SetOverride(false) or Reset, whatever the remote says.
func (r *Reconciler) SetOverride(ctx context.Context, on bool) {
	r.mu.Lock()
	before := r.state.IsPremium()
	r.state.Override = on
	r.writeSlot(ctx, OverrideKey, on)
	_, notify := r.commitLocked(before)
	r.mu.Unlock()

	notify()
}

// ApplyRemoteStatus records a status confirmed by the ledger or the backend
// profile. It is always persisted; IsPremium only changes when no override
// is active.
func (r *Reconciler) ApplyRemoteStatus(ctx context.Context, active bool) {
	r.mu.Lock()
	before := r.state.IsPremium()
	r.state.ConfirmedRemote = active
	r.writeSlot(ctx, ConfirmedKey, active)
	_, notify := r.commitLocked(before)
	r.mu.Unlock()

	notify()
}

// Reset clears both slots. Used on logout: the identity changed, so the
// override goes too.
func (r *Reconciler) Reset(ctx context.Context) {
	r.mu.Lock()
	before := r.state.IsPremium()
	r.state = models.EntitlementState{}
	r.user = ""
	r.epoch++
	r.deleteSlot(ctx, OverrideKey)
	r.writeSlot(ctx, ConfirmedKey, false)
	_, notify := r.commitLocked(before)
	r.mu.Unlock()

	notify()
}

// Subscribe registers fn to be called with the new value whenever
// IsPremium changes.
func (r *Reconciler) Subscribe(fn func(premium bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Reconcile asks the ledger for the user's status and applies it. Failures
// are logged and leave the current status untouched.
func (r *Reconciler) Reconcile(ctx context.Context, userID string) {
	r.reconcile(ctx, r.currentEpoch(), userID)
}

func (r *Reconciler) reconcile(ctx context.Context, epoch uint64, userID string) {
	if r.ledger == nil || userID == "" {
		return
	}
	st, err := r.ledger.GetStatus(ctx, userID)
	if err != nil {
		r.log.Warnf("[Entitlement] ledger status check failed, keeping premium=%v: %v", r.IsPremium(), err)
		return
	}
	if !r.applyRemoteAt(ctx, epoch, st.Active) {
		r.log.Infof("[Entitlement] dropped stale ledger status for %s", userID)
		return
	}
	r.log.Infof("[Entitlement] reconciled user %s: active=%v premium=%v", userID, st.Active, r.IsPremium())
}

// Purchase buys packageID through the ledger and applies the result.
func (r *Reconciler) Purchase(ctx context.Context, userID, packageID string) (bool, error) {
	if r.ledger == nil {
		return r.IsPremium(), ErrNoLedger
	}
	if userID == "" {
		return r.IsPremium(), ErrNoUser
	}
	epoch := r.currentEpoch()
	st, err := r.ledger.Purchase(ctx, userID, packageID)
	if err != nil {
		return r.IsPremium(), fmt.Errorf("purchase %s: %w", packageID, err)
	}
	return r.applyLedgerResult(ctx, epoch, userID, st)
}

// Restore restores previous purchases from the ledger and applies the result.
func (r *Reconciler) Restore(ctx context.Context, userID string) (bool, error) {
	if r.ledger == nil {
		return r.IsPremium(), ErrNoLedger
	}
	if userID == "" {
		return r.IsPremium(), ErrNoUser
	}
	epoch := r.currentEpoch()
	st, err := r.ledger.Restore(ctx, userID)
	if err != nil {
		return r.IsPremium(), fmt.Errorf("restore: %w", err)
	}
	return r.applyLedgerResult(ctx, epoch, userID, st)
}

// Wait blocks until background reconciliation and profile write-throughs finish.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) applyLedgerResult(ctx context.Context, epoch uint64, userID string, st models.LedgerStatus) (bool, error) {
	if !r.applyRemoteAt(ctx, epoch, st.Active) {
		return r.IsPremium(), ErrIdentityChanged
	}
	if st.Active {
		r.writeThrough(userID)
	}
	return r.IsPremium(), nil
}

func (r *Reconciler) currentEpoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

// applyRemoteAt is ApplyRemoteStatus for a reply requested under epoch.
// It reports false and changes nothing if the identity moved on.
func (r *Reconciler) applyRemoteAt(ctx context.Context, epoch uint64, active bool) bool {
	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		return false
	}
	before := r.state.IsPremium()
	r.state.ConfirmedRemote = active
	r.writeSlot(ctx, ConfirmedKey, active)
	_, notify := r.commitLocked(before)
	r.mu.Unlock()

	notify()
	return true
}

// writeThrough copies the premium flag to the profile store in the
// background. The ledger stays authoritative, so failures are only logged.
func (r *Reconciler) writeThrough(userID string) {
	if r.profile == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeThroughTimeout)
		defer cancel()
		if err := r.profile.SetPremiumFlag(ctx, userID, true); err != nil {
			r.log.Warnf("[Entitlement] profile write-through failed for %s: %v", userID, err)
		}
	}()
}

// commitLocked compares the premium flag with before and returns a func
// that notifies listeners of a change. Call it after unlocking.
func (r *Reconciler) commitLocked(before bool) (bool, func()) {
	after := r.state.IsPremium()
	if after == before || len(r.listeners) == 0 {
		return after, func() {}
	}
	listeners := append([]func(bool){}, r.listeners...)
	return after, func() {
		for _, fn := range listeners {
			fn(after)
		}
	}
}

func (r *Reconciler) readSlot(ctx context.Context, key string) (value, ok bool) {
	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.log.Warnf("[Entitlement] failed to read %s: %v", key, err)
		return false, false
	}
	if !found {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.log.Debugf("[Entitlement] malformed %s=%q treated as false", key, raw)
		return false, true
	}
	return v, true
}

func (r *Reconciler) writeSlot(ctx context.Context, key string, v bool) {
	if err := r.store.Set(ctx, key, strconv.FormatBool(v)); err != nil {
		r.log.Warnf("[Entitlement] failed to persist %s: %v", key, err)
	}
}

func (r *Reconciler) deleteSlot(ctx context.Context, key string) {
	if err := r.store.Delete(ctx, key); err != nil {
		r.log.Warnf("[Entitlement] failed to clear %s: %v", key, err)
	}
}
