package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/jengzang/dialysis-locator-go/internal/models"
)

// DefaultActivePath locates the premium flag in a subscriber document.
const DefaultActivePath = "subscriber.entitlements.premium.active"

// LedgerClient reads and changes entitlements in the purchase ledger.
type LedgerClient struct {
	client
	activePath string
}

// NewLedgerClient creates a ledger client. activePath is a gjson path to
// the boolean that marks the premium entitlement active.
func NewLedgerClient(cfg ClientConfig, activePath string) *LedgerClient {
	if activePath == "" {
		activePath = DefaultActivePath
	}
	return &LedgerClient{client: newClient(cfg), activePath: activePath}
}

// GetStatus returns the user's current entitlement.
func (l *LedgerClient) GetStatus(ctx context.Context, userID string) (models.LedgerStatus, error) {
	body, err := l.do(ctx, http.MethodGet, "/subscribers/"+url.PathEscape(userID), nil, nil)
	if err != nil {
		return models.LedgerStatus{}, err
	}
	return l.parse(body)
}

// Purchase buys packageID for the user. Each call carries a fresh
// idempotency key so retries of the same call are not charged twice.
func (l *LedgerClient) Purchase(ctx context.Context, userID, packageID string) (models.LedgerStatus, error) {
	payload, err := json.Marshal(map[string]string{"package_id": packageID})
	if err != nil {
		return models.LedgerStatus{}, err
	}
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	body, err := l.do(ctx, http.MethodPost, "/subscribers/"+url.PathEscape(userID)+"/purchases", payload, headers)
	if err != nil {
		return models.LedgerStatus{}, err
	}
	return l.parse(body)
}

// Restore re-links earlier purchases to the user.
func (l *LedgerClient) Restore(ctx context.Context, userID string) (models.LedgerStatus, error) {
	body, err := l.do(ctx, http.MethodPost, "/subscribers/"+url.PathEscape(userID)+"/restore", []byte("{}"), nil)
	if err != nil {
		return models.LedgerStatus{}, err
	}
	return l.parse(body)
}

func (l *LedgerClient) parse(body []byte) (models.LedgerStatus, error) {
	if !gjson.ValidBytes(body) {
		return models.LedgerStatus{}, fmt.Errorf("ledger returned invalid JSON")
	}
	// A missing entitlement means inactive.
	return models.LedgerStatus{Active: gjson.GetBytes(body, l.activePath).Bool()}, nil
}
