package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	apiTokenVar   = "API_BEARER_TOKEN"
	secretTTLVar  = "SECRET_TTL_SEC"
	sessionTTLVar = "SESSION_TTL_SEC"
	handoffTTLVar = "HANDOFF_TTL_SEC"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ CredentialConfig = EnvVars{}
var _ SessionConfig = EnvVars{}
var _ HandoffConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" || port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "LINE OA Core")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetAPIBearerToken protects internal endpoints (handoff issuance). Set at deploy time.
func (EnvVars) GetAPIBearerToken() string {
	return GetEnv(apiTokenVar, "")
}

func (EnvVars) GetCredentialTTL() time.Duration {
	return GetEnvSeconds(secretTTLVar, 300)
}

// GetFallbackSigningSecret returns the static channel secret for local
// testing. The webhook prefers per-shop secrets resolved from the store.
func (EnvVars) GetFallbackSigningSecret() string {
	return GetEnv("LINE_CHANNEL_SECRET", "")
}

func (EnvVars) GetFallbackAccessToken() string {
	return GetEnv("LINE_CHANNEL_ACCESS_TOKEN", "")
}

func (EnvVars) GetSessionTTL() time.Duration {
	return GetEnvSeconds(sessionTTLVar, 600)
}

func (EnvVars) GetHandoffSecret() string {
	return GetEnv("HANDOFF_SECRET", "")
}

func (EnvVars) GetHandoffTTL() time.Duration {
	return GetEnvSeconds(handoffTTLVar, 900)
}

func (EnvVars) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "https://access.line.me")
}

func (EnvVars) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (EnvVars) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (EnvVars) GetOIDCRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvSeconds(envVar string, defaultSeconds int) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return time.Duration(defaultSeconds) * time.Second
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return time.Duration(defaultSeconds) * time.Second
	}
	return time.Duration(secs) * time.Second
}
