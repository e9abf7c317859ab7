package config

import "time"

type Config interface {
	EnvConfig
	EndpointConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

// EndpointConfig holds the remote endpoints the gateway and bridging issuer
// talk to. Each has a production default and an env-var override so tests
// and staging builds can repoint them.
type EndpointConfig interface {
	GetAPIBaseURL() string
	GetDomainValidationBaseURL() string
	GetApolloGraphQLURL() string
	GetRegisterBaseURL() string
	GetBridgeBaseURL() string
	GetFallbackBaseURL() string
	GetDefaultDomain() string
	GetRequestTimeout() time.Duration
}

type StorageConfig interface {
	GetDataFolder() string
	GetSecureKey() []byte
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
