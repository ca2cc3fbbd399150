package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/dialysis-locator-go/internal/ads"
	"github.com/jengzang/dialysis-locator-go/internal/dataset"
	"github.com/jengzang/dialysis-locator-go/internal/entitlement"
	"github.com/jengzang/dialysis-locator-go/internal/limits"
	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/repository"
)

// SessionKey holds the signed-in user across restarts.
const SessionKey = "session_user"

var (
	// ErrCenterNotFound is returned for unknown center IDs.
	ErrCenterNotFound = errors.New("center not found")
	// ErrLimitReached is returned when a free-tier quota is used up.
	ErrLimitReached = errors.New("daily limit reached")
	// ErrInvalidToken is returned when a session token fails validation.
	ErrInvalidToken = errors.New("invalid session token")
)

// AccessStatus is the combined quota and entitlement view.
type AccessStatus struct {
	UserID      string                  `json:"user_id,omitempty"`
	Premium     bool                    `json:"premium"`
	Entitlement models.EntitlementState `json:"entitlement"`
	Limits      models.LimitStatus      `json:"limits"`
}

// AdPlacement tells the UI shell what to render for ads.
type AdPlacement struct {
	ShowAds bool `json:"show_ads"`
	Banner  bool `json:"banner"`
	ads.PlacementState
}

// AccessService gates detail views and search behind the daily limits,
// bypassed entirely for premium users.
type AccessService struct {
	store     *dataset.Store
	limiter   *limits.Limiter
	ent       *entitlement.Reconciler
	gate      *ads.Gate
	placement *ads.Placement
	kv        repository.KVStore
	secret    []byte
	log       logrus.FieldLogger

	// bg scopes background reconciliation; request contexts end too early.
	// Close cancels it.
	bg       context.Context
	cancelBg context.CancelFunc

	mu     sync.Mutex
	userID string
}

// NewAccessService wires the access layer. The ad gate follows every
// entitlement change.
func NewAccessService(
	store *dataset.Store,
	limiter *limits.Limiter,
	ent *entitlement.Reconciler,
	gate *ads.Gate,
	placement *ads.Placement,
	kv repository.KVStore,
	jwtSecret string,
	log logrus.FieldLogger,
) *AccessService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	bg, cancel := context.WithCancel(context.Background())
	s := &AccessService{
		store:     store,
		limiter:   limiter,
		ent:       ent,
		gate:      gate,
		placement: placement,
		kv:        kv,
		secret:    []byte(jwtSecret),
		log:       log,
		bg:        bg,
		cancelBg:  cancel,
	}
	ent.Subscribe(gate.OnPremiumChanged)
	return s
}

// IsPremium reports the current entitlement.
func (s *AccessService) IsPremium() bool {
	return s.ent.IsPremium()
}

// UserID returns the signed-in user, or "".
func (s *AccessService) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Init loads the persisted entitlement before the first request. If a user
// was signed in before the restart, the ledger is checked in the
// background. Free-tier users get an interstitial prepared.
func (s *AccessService) Init(ctx context.Context) bool {
	var premium bool
	userID, ok, err := s.kv.Get(ctx, SessionKey)
	if err != nil {
		s.log.Warnf("[Access] read session: %v", err)
	}
	if ok && userID != "" {
		s.mu.Lock()
		s.userID = userID
		s.mu.Unlock()
		premium = s.ent.Start(s.bg, userID)
		s.log.Infof("[Access] resumed session for %s, premium=%v", userID, premium)
	} else {
		premium = s.ent.Load(ctx)
	}
	s.gate.Preload()
	return premium
}

// AdmitView consumes a detail view for id unless the user is premium.
// Unknown IDs are admitted so the caller can report them as missing.
func (s *AccessService) AdmitView(ctx context.Context, id string) bool {
	if s.ent.IsPremium() {
		return true
	}
	if _, ok := s.store.Get(id); !ok {
		return true
	}
	return s.limiter.RecordView(ctx, id)
}

// AdmitSearch consumes a search unless the user is premium.
func (s *AccessService) AdmitSearch(ctx context.Context) bool {
	if s.ent.IsPremium() {
		return true
	}
	return s.limiter.RecordSearch(ctx)
}

// ViewCenter returns a center's details, consuming a view.
func (s *AccessService) ViewCenter(ctx context.Context, id string) (models.Center, error) {
	center, ok := s.store.Get(id)
	if !ok {
		return models.Center{}, ErrCenterNotFound
	}
	if !s.AdmitView(ctx, id) {
		return models.Center{}, ErrLimitReached
	}
	return center, nil
}

// Search runs a search, consuming one from the daily quota.
func (s *AccessService) Search(ctx context.Context, filter models.SearchFilter) ([]models.Center, error) {
	if !s.AdmitSearch(ctx) {
		return nil, ErrLimitReached
	}
	return s.store.Search(filter), nil
}

// Status reports quotas and entitlement.
func (s *AccessService) Status(ctx context.Context) AccessStatus {
	state := s.ent.State()
	return AccessStatus{
		UserID:      s.UserID(),
		Premium:     state.IsPremium(),
		Entitlement: state,
		Limits:      s.limiter.Status(ctx),
	}
}

// Login validates an HS256 session token and starts a background
// reconciliation for its subject.
func (s *AccessService) Login(ctx context.Context, token string) (string, bool, error) {
	userID, err := s.parseToken(token)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	if err := s.kv.Set(ctx, SessionKey, userID); err != nil {
		s.log.Warnf("[Access] persist session: %v", err)
	}

	premium := s.ent.Start(s.bg, userID)
	s.log.Infof("[Access] user %s signed in, premium=%v", userID, premium)
	return userID, premium, nil
}

// Logout forgets the user and resets the entitlement.
func (s *AccessService) Logout(ctx context.Context) {
	s.mu.Lock()
	userID := s.userID
	s.userID = ""
	s.mu.Unlock()

	if err := s.kv.Delete(ctx, SessionKey); err != nil {
		s.log.Warnf("[Access] clear session: %v", err)
	}
	s.ent.Reset(ctx)
	s.log.Infof("[Access] user %s signed out", userID)
}

// SetOverride sets the local premium override.
func (s *AccessService) SetOverride(ctx context.Context, on bool) bool {
	s.ent.SetOverride(ctx, on)
	return s.ent.IsPremium()
}

// Purchase buys packageID for the signed-in user.
func (s *AccessService) Purchase(ctx context.Context, packageID string) (bool, error) {
	return s.ent.Purchase(ctx, s.UserID(), packageID)
}

// Restore restores earlier purchases for the signed-in user.
func (s *AccessService) Restore(ctx context.Context) (bool, error) {
	return s.ent.Restore(ctx, s.UserID())
}

// Placement shows the banner for free-tier users and reports what to render.
func (s *AccessService) Placement() AdPlacement {
	banner := s.gate.ShowBanner()
	return AdPlacement{
		ShowAds:        s.gate.ShouldShowAds(),
		Banner:         banner,
		PlacementState: s.placement.State(),
	}
}

// Interstitial shows a preloaded interstitial if one is ready.
func (s *AccessService) Interstitial() bool {
	return s.gate.ShowInterstitial()
}

// Close cancels background ledger calls and ad work, then waits for
// entitlement goroutines.
func (s *AccessService) Close() {
	s.cancelBg()
	s.gate.Close()
	s.ent.Wait()
}

func (s *AccessService) parseToken(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}
