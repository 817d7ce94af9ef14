package onboarding_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chonlathan-cloud/lineoa-public-mirror/onboarding"
)

func TestHTTPProfileProvider(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"displayName":"Somchai","pictureUrl":"https://profile.example/somchai.jpg"}`))
	}))
	defer srv.Close()

	provider, err := onboarding.NewHTTPProfileProvider(
		func(context.Context) (string, error) { return "access-token-1", nil },
		onboarding.ProfileWithEndpoint(srv.URL),
	)
	require.NoError(t, err)

	profile, err := provider.Profile(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, "Somchai", profile.DisplayName)
	require.Equal(t, "https://profile.example/somchai.jpg", profile.AvatarURL)
	require.Equal(t, "/"+testUserID, gotPath)
	require.Equal(t, "Bearer access-token-1", gotAuth)
}

func TestHTTPProfileProviderNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	provider, err := onboarding.NewHTTPProfileProvider(
		func(context.Context) (string, error) { return "access-token-1", nil },
		onboarding.ProfileWithEndpoint(srv.URL),
	)
	require.NoError(t, err)

	_, err = provider.Profile(context.Background(), testUserID)
	require.Error(t, err)
}

func TestNewHTTPProfileProviderRequiresTokenFunc(t *testing.T) {
	_, err := onboarding.NewHTTPProfileProvider(nil)
	require.Error(t, err)
}
