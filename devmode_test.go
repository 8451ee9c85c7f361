package deskrt

import (
	"log"
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDevSessionRestartPreservesChromeWindow(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "app.js", "globalThis.x = 1;\n")

	chrome := NewFakeWindow(0, 16)
	cfg := RuntimeConfig{Backend: "fake", Logger: log.New(os.Stderr, "", 0)}

	session, err := NewDevSession(cfg, path, chrome, nil, nil)
	if err != nil {
		t.Fatalf("NewDevSession: %v", err)
	}
	defer session.watcher.Close()

	if session.JSErrorState() {
		t.Fatal("expected a clean first load")
	}
	firstRuntime := session.Current

	if err := session.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}

	if chrome.Closed() {
		t.Fatal("restart must not close the chrome window's native resource")
	}
	if session.Current == firstRuntime {
		t.Fatal("expected a fresh Runtime after restart")
	}

	session.Current.windowsMu.Lock()
	_, stillTracked := session.Current.windows[session.chromeWindowID]
	session.Current.windowsMu.Unlock()
	if !stillTracked {
		t.Fatal("expected the chrome window to be re-registered on the new runtime")
	}

	_ = session.Current.Shutdown()
}
