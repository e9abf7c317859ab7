package config

import (
	"crypto/sha256"
	"os"
	"time"
)

const (
	appNameVar          = "APP_NAME"
	apiBaseVar          = "API_BASE_URL"
	domainValidationVar = "DOMAIN_VALIDATION_BASE_URL"
	apolloGraphQLVar    = "APOLLO_GRAPHQL_URL"
	registerBaseVar     = "REGISTER_BASE_URL"
	bridgeBaseVar       = "BRIDGE_BASE_URL"
	fallbackBaseVar     = "FALLBACK_BASE_URL"
	defaultDomainVar    = "DEFAULT_DOMAIN"
	requestTimeoutVar   = "REQUEST_TIMEOUT"
	folderEnvVar        = "FOLDER"
	secureKeyVar        = "SECURE_STORE_KEY"
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Vmedis Mobile Shell")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseVar, "https://api3.vmedis.com")
}

func (EnvVars) GetDomainValidationBaseURL() string {
	return GetEnv(domainValidationVar, "https://api3penjualan.vmedis.com")
}

func (EnvVars) GetApolloGraphQLURL() string {
	return GetEnv(apolloGraphQLVar, "https://apollo.vmedis.com/graphql")
}

func (EnvVars) GetRegisterBaseURL() string {
	return GetEnv(registerBaseVar, "https://api.vmedis.com")
}

func (EnvVars) GetBridgeBaseURL() string {
	return GetEnv(bridgeBaseVar, "https://v3.vmedismart.com/")
}

func (EnvVars) GetFallbackBaseURL() string {
	return GetEnv(fallbackBaseVar, "https://v3.vmedis.com/")
}

func (EnvVars) GetDefaultDomain() string {
	return GetEnv(defaultDomainVar, "vmedis")
}

func (EnvVars) GetRequestTimeout() time.Duration {
	raw := GetEnv(requestTimeoutVar, "30s")
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetSecureKey derives the 32-byte secure-store key from the configured
// secret. Hashing means any secret length works; an unset secret still
// yields a stable per-install key once written to .env.
func (EnvVars) GetSecureKey() []byte {
	secret := GetEnv(secureKeyVar, "vmedis-mobile-shell-dev-key")
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
