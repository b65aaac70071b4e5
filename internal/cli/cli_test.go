package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRootCmd_hasSubcommands(t *testing.T) {
	root := NewRootCmd("test")
	if root == nil {
		t.Fatal("NewRootCmd returned nil")
	}
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "status", "backfill-reports", "version"} {
		if !names[want] {
			t.Errorf("expected subcommand %q", want)
		}
	}
}

func TestNewRootCmd_versionFlag(t *testing.T) {
	root := NewRootCmd("1.2.3")
	if root.Version != "1.2.3" {
		t.Errorf("Version: got %q", root.Version)
	}
	root = NewRootCmd("")
	if root.Version != "dev" {
		t.Errorf("default Version: got %q", root.Version)
	}
}

func TestVersionSubcommand(t *testing.T) {
	root := NewRootCmd("1.2.3")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "1.2.3" {
		t.Errorf("output = %q, want 1.2.3", buf.String())
	}
}

func TestNewRootCmd_hasHomeFlag(t *testing.T) {
	root := NewRootCmd("")
	if root.PersistentFlags().Lookup("home") == nil {
		t.Fatal("expected --home persistent flag")
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{":8876", "http://127.0.0.1:8876"},
		{"localhost:8876", "http://localhost:8876"},
		{"http://example.com", "http://example.com"},
		{"https://sprintd.internal", "https://sprintd.internal"},
	}
	for _, tc := range cases {
		if got := normalizeBaseURL(tc.in); got != tc.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBackfillReportsAgainstEmptyDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")

	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"backfill-reports", "--db", dbPath})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("backfill-reports: %v", err)
	}
	if !strings.Contains(buf.String(), "created 0 report(s)") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestStatusAgainstUnreachableServer(t *testing.T) {
	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"status", "--addr", "http://127.0.0.1:1"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
