package quickjs

import (
	"testing"

	"github.com/scriptkit/deskrt/internal/core"
)

func TestEvalStringReturnsResult(t *testing.T) {
	e, err := New(core.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Dispose()

	got, err := e.EvalString("1 + 2")
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if got != "3" {
		t.Fatalf("got %q, want %q", got, "3")
	}
}

func TestRegisterFuncCallableFromScript(t *testing.T) {
	e, err := New(core.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Dispose()

	if err := e.RegisterFunc("double", func(n int64) int64 { return n * 2 }); err != nil {
		t.Fatalf("RegisterFunc: %v", err)
	}
	got, err := e.EvalString("double(21)")
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if got != "42" {
		t.Fatalf("got %q, want %q", got, "42")
	}
}

func TestBinaryModeIsArrayBuffer(t *testing.T) {
	e, err := New(core.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Dispose()
	eng := e.(*Engine)
	if eng.BinaryMode() != "ab" {
		t.Fatalf("BinaryMode() = %q, want ab", eng.BinaryMode())
	}
}
