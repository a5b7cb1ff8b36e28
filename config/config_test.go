package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManager_Defaults(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if got := m.BackendURL(); got != "http://localhost:3417" {
		t.Fatalf("unexpected backend url %q", got)
	}
	if got := m.KeepAliveInterval(); got != 10*time.Second {
		t.Fatalf("unexpected keep-alive interval %v", got)
	}
	if got := m.RequestTimeout(); got != 30*time.Second {
		t.Fatalf("unexpected request timeout %v", got)
	}
	if !m.RenderMarkdown() {
		t.Fatalf("expected markdown rendering by default")
	}
}

func TestManager_LoadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"backend_url":"http://files:1","keepalive_interval":"3s"}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SSE_CHAT_REQUEST_TIMEOUT", "5s")

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if got := m.BackendURL(); got != "http://files:1" {
		t.Fatalf("expected url from file, got %q", got)
	}
	if got := m.KeepAliveInterval(); got != 3*time.Second {
		t.Fatalf("expected interval from file, got %v", got)
	}
	if got := m.RequestTimeout(); got != 5*time.Second {
		t.Fatalf("expected timeout from env, got %v", got)
	}

	cfg, err := m.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.BackendURL != "http://files:1" || cfg.KeepAliveInterval != 3*time.Second {
		t.Fatalf("unexpected resolved config %+v", cfg)
	}
}

func TestManager_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m.SetBackendURL("http://saved:2"); err != nil {
		t.Fatalf("SetBackendURL: %v", err)
	}

	again, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if got := again.BackendURL(); got != "http://saved:2" {
		t.Fatalf("expected saved url, got %q", got)
	}
}

func TestManager_RejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}
