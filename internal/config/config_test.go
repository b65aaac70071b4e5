package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestHomePrecedence(t *testing.T) {
	ctx := context.Background()

	explicit := t.TempDir()
	got, err := Home(WithHome(ctx, explicit))
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if got != explicit {
		t.Fatalf("home = %q, want context value %q", got, explicit)
	}

	envHome := t.TempDir()
	t.Setenv(EnvHome, envHome)
	got, err = Home(ctx)
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if got != envHome {
		t.Fatalf("home = %q, want env value %q", got, envHome)
	}

	// Context beats env.
	got, err = Home(WithHome(ctx, explicit))
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if got != explicit {
		t.Fatalf("home = %q, want context to win", got)
	}
}

func TestEnsureHomeCreatesDir(t *testing.T) {
	base := t.TempDir()
	home := filepath.Join(base, "nested", "sprintd")
	got, err := EnsureHome(WithHome(context.Background(), home))
	if err != nil {
		t.Fatalf("ensure home: %v", err)
	}
	if got != home {
		t.Fatalf("home = %q, want %q", got, home)
	}
	info, err := os.Stat(home)
	if err != nil || !info.IsDir() {
		t.Fatalf("home dir missing: %v", err)
	}
}
