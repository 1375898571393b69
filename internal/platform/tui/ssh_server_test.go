package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/tui-2048/internal/engine"
)

func TestNewSSHServer(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "keys", "host_key")
	cfg := DefaultSSHServerConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.HostKeyPath = keyPath
	cfg.EngineOptions = []engine.Option{engine.WithWinTile(512)}

	srv, err := NewSSHServer(cfg, &fakeStore{}, nil)
	if err != nil {
		t.Fatalf("NewSSHServer() error: %v", err)
	}
	if srv.Addr() != "127.0.0.1:0" {
		t.Errorf("Addr() = %q", srv.Addr())
	}
	if _, err := os.Stat(filepath.Dir(keyPath)); err != nil {
		t.Errorf("host key directory not created: %v", err)
	}
}

func TestResolveHostKeyPath(t *testing.T) {
	want := filepath.Join(t.TempDir(), "a", "b", "key")
	got, err := resolveHostKeyPath(want)
	if err != nil {
		t.Fatalf("resolveHostKeyPath() error: %v", err)
	}
	if got != want {
		t.Errorf("resolveHostKeyPath() = %q, want %q", got, want)
	}
	info, err := os.Stat(filepath.Dir(want))
	if err != nil || !info.IsDir() {
		t.Errorf("directory %s not created", filepath.Dir(want))
	}
}
