package webhook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chonlathan-cloud/lineoa-public-mirror/credentials"
	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore/memstore"
	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
	"github.com/chonlathan-cloud/lineoa-public-mirror/webhook"
)

const (
	testShopID = "shop_00001"
	testSecret = "channel-secret-1"
)

func newAuthenticator(t *testing.T, shopSecrets map[string]string) *webhook.Authenticator {
	t.Helper()

	backing := memstore.New()
	for shopID, secret := range shopSecrets {
		err := backing.Put(context.Background(), credentials.SettingsCollection, shopID, docstore.Document{
			"line_channel_secret": secret,
		})
		require.NoError(t, err)
	}

	source, err := credentials.NewDocstoreSource(backing)
	require.NoError(t, err)
	store, err := credentials.NewStore(source)
	require.NoError(t, err)
	auth, err := webhook.NewAuthenticator(store)
	require.NoError(t, err)
	return auth
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	auth := newAuthenticator(t, map[string]string{testShopID: testSecret})
	body := []byte(`{"destination":"U1","events":[]}`)

	err := auth.Verify(context.Background(), testShopID, body, webhook.Sign(testSecret, body))
	require.NoError(t, err)
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	auth := newAuthenticator(t, map[string]string{testShopID: testSecret})
	body := []byte(`{"destination":"U1","events":[]}`)
	sig := webhook.Sign(testSecret, body)

	// Flip a single byte of the body.
	tampered := append([]byte(nil), body...)
	tampered[len(tampered)-2] ^= 0x01

	err := auth.Verify(context.Background(), testShopID, tampered, sig)
	require.ErrorIs(t, err, interrors.ErrSignatureMismatch)
}

func TestVerifyRejectsWrongShopSecret(t *testing.T) {
	auth := newAuthenticator(t, map[string]string{
		"shop_00001": "secret-one",
		"shop_00002": "secret-two",
	})
	body := []byte(`{"events":[]}`)

	// A signature valid for shop two must not verify against shop one.
	err := auth.Verify(context.Background(), "shop_00001", body, webhook.Sign("secret-two", body))
	require.ErrorIs(t, err, interrors.ErrSignatureMismatch)
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	auth := newAuthenticator(t, map[string]string{testShopID: testSecret})

	err := auth.Verify(context.Background(), testShopID, []byte(`{}`), "")
	require.ErrorIs(t, err, interrors.ErrSignatureMissing)
}

func TestVerifyFailsClosedWhenCredentialsMissing(t *testing.T) {
	auth := newAuthenticator(t, nil)
	body := []byte(`{}`)

	err := auth.Verify(context.Background(), "shop_99999", body, webhook.Sign(testSecret, body))
	require.ErrorIs(t, err, interrors.ErrCredentialNotFound)
}
