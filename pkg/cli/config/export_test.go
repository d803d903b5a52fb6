package config

import "github.com/secmon-lab/memora/pkg/service/provider"

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, postgresDSN string) *Repository {
	return &Repository{backend: backend, projectID: projectID, postgresDSN: postgresDSN}
}

// NewProviderForTest creates a Provider config for testing purposes
func NewProviderForTest(kind string, devMock bool, httpCfg provider.Config, cacheSize int64) *Provider {
	return &Provider{kind: kind, devMock: devMock, http: httpCfg, cacheSize: cacheSize, geminiLocation: "us-central1"}
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(secret string, noAuthUID int64) *Auth {
	return &Auth{secret: secret, noAuthUID: noAuthUID}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}
