// Package binding implements the cross-service owner handshake: the consumer
// service issues a short-lived signed handoff token asserting who a messaging
// user is, and the admin service verifies it and durably binds the user's
// global identity to the shop.
package binding

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

const defaultTokenTTL = 15 * time.Minute

// Claims are the verified contents of a handoff token.
type Claims struct {
	SubjectID string // messaging user id on the consumer side
	ShopID    string // shop this handoff targets
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs and verifies handoff tokens with a shared symmetric secret.
// Both services hold the secret; nothing else can mint a valid token.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	nowFunc func() time.Time
}

type IssuerOption func(*Issuer)

// IssuerWithTTL sets the default token lifetime (default 900s).
func IssuerWithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// IssuerWithNowFunc sets the clock (primarily for testing).
func IssuerWithNowFunc(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = nowFunc
	}
}

func NewIssuer(secret string, options ...IssuerOption) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("[NewIssuer] secret is required")
	}

	i := &Issuer{
		secret:  []byte(secret),
		ttl:     defaultTokenTTL,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

// Issue creates a signed handoff token binding the subject to the shop with
// an absolute expiry. ttl <= 0 uses the issuer default.
func (i *Issuer) Issue(subjectID, shopID string, ttl time.Duration) (string, error) {
	if subjectID == "" || shopID == "" {
		return "", errors.New("[Issuer.Issue] subject and shop are required")
	}
	if ttl <= 0 {
		ttl = i.ttl
	}

	now := i.nowFunc()
	claims := jwt.MapClaims{
		"sub":  subjectID,
		"shop": shopID,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"jti":  uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.Issue] sign token")
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the claims. Expiry is a
// hard deadline: an otherwise-valid signature past exp fails ErrTokenExpired.
func (i *Issuer) Verify(raw string) (Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.nowFunc), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, interrors.ErrTokenExpired
		}
		return Claims{}, errors.Wrapf(interrors.ErrTokenInvalid, "%v", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, interrors.ErrTokenInvalid
	}

	sub, _ := mapClaims["sub"].(string)
	shop, _ := mapClaims["shop"].(string)
	if sub == "" || shop == "" {
		return Claims{}, errors.Wrap(interrors.ErrTokenInvalid, "missing subject or shop claim")
	}

	iat, _ := mapClaims["iat"].(float64)
	exp, _ := mapClaims["exp"].(float64)

	return Claims{
		SubjectID: sub,
		ShopID:    shop,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
