package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// ProfileClient updates the denormalized premium flag on the user profile.
type ProfileClient struct {
	client
}

// NewProfileClient creates a profile store client.
func NewProfileClient(cfg ClientConfig) *ProfileClient {
	return &ProfileClient{client: newClient(cfg)}
}

// SetPremiumFlag writes the premium flag for userID.
func (p *ProfileClient) SetPremiumFlag(ctx context.Context, userID string, premium bool) error {
	payload, err := json.Marshal(map[string]bool{"is_premium": premium})
	if err != nil {
		return err
	}
	_, err = p.do(ctx, http.MethodPatch, "/profiles/"+url.PathEscape(userID), payload, nil)
	return err
}
