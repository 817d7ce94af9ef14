package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Profile is the messaging platform's view of a user, attached to the shop
// record on completion.
type Profile struct {
	DisplayName string
	AvatarURL   string
}

// ProfileProvider fetches a user's profile. Lookups are best-effort; the
// machine completes onboarding without one.
type ProfileProvider interface {
	Profile(ctx context.Context, userID string) (Profile, error)
}

const defaultProfileEndpoint = "https://api.line.me/v2/bot/profile"

// HTTPProfileProvider calls the channel profile API with the bot's access
// token. The token is resolved per call so credential rotation takes effect
// without restarting.
type HTTPProfileProvider struct {
	endpoint  string
	tokenFunc func(ctx context.Context) (string, error)
	client    *http.Client
}

var _ ProfileProvider = (*HTTPProfileProvider)(nil)

type HTTPProfileProviderOption func(*HTTPProfileProvider)

func ProfileWithEndpoint(endpoint string) HTTPProfileProviderOption {
	return func(p *HTTPProfileProvider) {
		p.endpoint = endpoint
	}
}

func ProfileWithHTTPClient(client *http.Client) HTTPProfileProviderOption {
	return func(p *HTTPProfileProvider) {
		p.client = client
	}
}

func NewHTTPProfileProvider(tokenFunc func(ctx context.Context) (string, error), options ...HTTPProfileProviderOption) (*HTTPProfileProvider, error) {
	if tokenFunc == nil {
		return nil, errors.New("[NewHTTPProfileProvider] token func is required")
	}

	p := &HTTPProfileProvider{
		endpoint:  defaultProfileEndpoint,
		tokenFunc: tokenFunc,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

func (p *HTTPProfileProvider) Profile(ctx context.Context, userID string) (Profile, error) {
	token, err := p.tokenFunc(ctx)
	if err != nil {
		return Profile{}, errors.Wrap(err, "[HTTPProfileProvider.Profile] resolve token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/"+userID, nil)
	if err != nil {
		return Profile{}, errors.Wrap(err, "[HTTPProfileProvider.Profile] build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return Profile{}, errors.Wrap(err, "[HTTPProfileProvider.Profile] call profile API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("[HTTPProfileProvider.Profile] profile API status %d", resp.StatusCode)
	}

	var body struct {
		DisplayName string `json:"displayName"`
		PictureURL  string `json:"pictureUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Profile{}, errors.Wrap(err, "[HTTPProfileProvider.Profile] decode response")
	}

	return Profile{DisplayName: body.DisplayName, AvatarURL: body.PictureURL}, nil
}
