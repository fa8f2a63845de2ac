package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadEnv loads one or more .env files into the process environment. Later
// files take precedence over earlier ones, and file values override variables
// already present in the environment. With no arguments the default .env in
// the working directory is loaded.
func LoadEnv(paths ...string) error {
	return godotenv.Overload(paths...)
}

// MustLoadEnv works like LoadEnv but panics if any file cannot be loaded.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

// ResetCache drops every cached configuration so the next Load parses the
// environment again. Intended for tests that mutate environment variables
// between loads.
func ResetCache() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	globalCache.values = make(map[string]any)
	globalCache.onces = make(map[string]*sync.Once)
}

// ForceReloadConfig reparses the environment into v, replacing any cached
// value for its type. Use after the process environment changed.
func ForceReloadConfig[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	typeName := getTypeName[T]()
	globalCache.mu.Lock()
	globalCache.values[typeName] = *v
	globalCache.mu.Unlock()
	return nil
}
