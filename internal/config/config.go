package config

import "time"

type Config interface {
	EnvConfig
	CredentialConfig
	SessionConfig
	HandoffConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetAPIBearerToken() string
}

// CredentialConfig controls per-shop credential resolution.
type CredentialConfig interface {
	GetCredentialTTL() time.Duration
	GetFallbackSigningSecret() string
	GetFallbackAccessToken() string
}

// SessionConfig controls conversational session lifetime.
type SessionConfig interface {
	GetSessionTTL() time.Duration
}

// HandoffConfig controls the cross-service handoff token and the
// federated login used to resolve the caller's global identity.
type HandoffConfig interface {
	GetHandoffSecret() string
	GetHandoffTTL() time.Duration
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCRedirectURL() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
