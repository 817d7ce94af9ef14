package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/chonlathan-cloud/lineoa-public-mirror/credentials"
)

const defaultReplyEndpoint = "https://api.line.me/v2/bot/message/reply"

// HTTPReplier sends reply messages through the channel reply API. The access
// token is resolved per shop on every call, so rotation and per-shop
// credentials apply without restarting.
type HTTPReplier struct {
	creds    *credentials.Store
	endpoint string
	client   *http.Client
}

type HTTPReplierOption func(*HTTPReplier)

func ReplierWithEndpoint(endpoint string) HTTPReplierOption {
	return func(r *HTTPReplier) {
		r.endpoint = endpoint
	}
}

func ReplierWithHTTPClient(client *http.Client) HTTPReplierOption {
	return func(r *HTTPReplier) {
		r.client = client
	}
}

func NewHTTPReplier(creds *credentials.Store, options ...HTTPReplierOption) (*HTTPReplier, error) {
	if creds == nil {
		return nil, errors.New("[NewHTTPReplier] credential store is required")
	}

	r := &HTTPReplier{
		creds:    creds,
		endpoint: defaultReplyEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Reply delivers one text message against the event's reply token. Reply
// tokens are single-use and short-lived on the channel side; a failed
// delivery is not retried here.
func (r *HTTPReplier) Reply(ctx context.Context, shopID, replyToken, text string) error {
	if replyToken == "" || text == "" {
		return errors.New("[HTTPReplier.Reply] reply token and text are required")
	}

	cred, err := r.creds.Resolve(ctx, shopID)
	if err != nil {
		return errors.Wrapf(err, "[HTTPReplier.Reply] resolve %s", shopID)
	}
	if cred.AccessToken == "" {
		return errors.Errorf("[HTTPReplier.Reply] shop %s has no access token", shopID)
	}

	payload, err := json.Marshal(map[string]any{
		"replyToken": replyToken,
		"messages": []map[string]any{
			{"type": "text", "text": text},
		},
	})
	if err != nil {
		return errors.Wrap(err, "[HTTPReplier.Reply] encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "[HTTPReplier.Reply] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "[HTTPReplier.Reply] call reply API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("[HTTPReplier.Reply] reply API status %d", resp.StatusCode)
	}
	return nil
}
