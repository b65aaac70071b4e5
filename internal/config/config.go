// Package config resolves the sprintd home directory.
package config

import (
	"context"
	"os"
	"path/filepath"
)

type contextKey string

const homeKey contextKey = "sprintd-home"

// EnvHome overrides the default home directory when set.
const EnvHome = "SPRINTD_HOME"

// DefaultHome returns ~/.sprintd.
func DefaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sprintd"), nil
}

// WithHome stores an explicit home directory in the context.
func WithHome(ctx context.Context, home string) context.Context {
	return context.WithValue(ctx, homeKey, home)
}

// Home resolves the home directory: context value, then SPRINTD_HOME,
// then ~/.sprintd.
func Home(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(homeKey).(string); ok && v != "" {
		return v, nil
	}
	if v := os.Getenv(EnvHome); v != "" {
		return v, nil
	}
	return DefaultHome()
}

// EnsureHome resolves the home directory and creates it if missing.
func EnsureHome(ctx context.Context) (string, error) {
	home, err := Home(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", err
	}
	return home, nil
}
