package bundler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMainSkipsBundlingWithoutImports(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.js")
	src := "globalThis.x = 1;\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New()
	got, gotDir, err := l.LoadMain(path)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if got != src {
		t.Fatalf("expected source to pass through unchanged, got %q", got)
	}
	if gotDir != dir {
		t.Fatalf("dir = %q, want %q", gotDir, dir)
	}
}

func TestResolveRejectsBareSpecifiers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.js")
	if err := os.WriteFile(path, []byte("globalThis.x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New()
	_, mainDir, err := l.LoadMain(path)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}

	if _, _, _, err := l.Resolve(mainDir, "some-package"); err == nil {
		t.Fatal("expected bare specifier to be rejected")
	}
}

func TestResolveReadsRelativeImport(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.js")
	helper := filepath.Join(dir, "helper.js")
	if err := os.WriteFile(main, []byte("import './helper.js';\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(helper, []byte("export const x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New()
	_, mainDir, err := l.LoadMain(main)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}

	src, resolvedDir, resolvedPath, err := l.Resolve(mainDir, "./helper.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolvedPath != helper {
		t.Fatalf("resolvedPath = %q, want %q", resolvedPath, helper)
	}
	if resolvedDir != dir {
		t.Fatalf("resolvedDir = %q, want %q", resolvedDir, dir)
	}
	if src == "" {
		t.Fatal("expected non-empty transformed source")
	}
}
