// Package config loads application configuration from environment variables
// into annotated structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: .env
// files feed the process environment, env.Parse fills the struct from field
// tags, and each configuration type is parsed once and cached for the
// lifetime of the process.
//
// # Usage
//
//	type ResolverConfig struct {
//	    CacheTTL time.Duration `env:"RBAC_CACHE_TTL" envDefault:"5m"`
//	    MaxDepth int           `env:"RBAC_MAX_INHERITANCE_DEPTH" envDefault:"10"`
//	}
//
//	var cfg ResolverConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Subsequent calls to Load for the same type are served from the cache.
// LoadEnv loads explicit .env files before parsing; MustLoad and MustLoadEnv
// panic on failure for configuration the process cannot start without.
//
// # Testing
//
// ResetCache clears the cache between tests, and ForceReloadConfig reparses
// a single type after the environment changed.
//
// Sentinel errors (ErrParsingConfig, ErrConfigNotLoaded, ErrNilPointer) are
// comparable with errors.Is.
package config
