// Package core declares the engine-agnostic contracts shared by the v8 and
// quickjs backends and by the orchestration layer above them. Nothing in
// this package may import either backend.
package core

import "time"

// JSRuntime abstracts the script engine (V8 or QuickJS) behind a common
// interface used by the Value Bridge, Module Loader, and Event Loop Driver.
type JSRuntime interface {
	// Eval evaluates JavaScript source and discards the result.
	Eval(js string) error

	// EvalString evaluates JavaScript and returns the result as a Go string.
	EvalString(js string) (string, error)

	// RegisterFunc registers a Go function as a global JavaScript function.
	// The function's Go types are automatically marshaled to/from JS types.
	RegisterFunc(name string, fn any) error

	// SetGlobal sets a global variable on the JS context. Basic Go types
	// are auto-converted to JS types.
	SetGlobal(name string, value any) error

	// RunMicrotasks pumps the microtask queue for a single checkpoint.
	// Callers drain to fixed-point by calling it in a loop.
	RunMicrotasks()

	// Interrupt terminates any script currently executing on this runtime.
	// It is the one call into the engine that is safe to make from a
	// goroutine other than the one that owns the runtime — it backs the
	// watchdog the Event Loop Driver arms per frame/test step.
	Interrupt()

	// Dispose releases the engine's native state. After Dispose, no other
	// method may be called.
	Dispose()
}

// BinaryTransferer is an optional capability for efficient binary transfer
// between Go and JS. V8 implements it with SharedArrayBuffer; QuickJS with
// direct ArrayBuffer access via the C API.
type BinaryTransferer interface {
	ReadBinaryFromJS(globalName string) ([]byte, error)
	WriteBinaryToJS(globalName string, data []byte) error
	BinaryMode() string // "sab" (V8) or "ab" (QuickJS)
}

// ModuleResolver resolves an import specifier relative to a referrer module,
// returning the resolved module's source and its script-engine module id.
type ModuleResolver func(referrerID int, specifier string) (moduleID int, err error)

// Engine is the build-tag-selected backend contract: a single script-engine
// instance (one isolate/VM, process-singleton per Runtime) plus the module
// compilation hooks the Module Loader needs and the finalizer hook the
// Resource Table and Weak Handle Table need.
type Engine interface {
	JSRuntime

	// CompileModule compiles source as an ES module and returns an opaque
	// module id assigned by the engine.
	CompileModule(source, filename string) (moduleID int, err error)

	// InstantiateAndEvaluate instantiates the named module (resolving its
	// imports via resolve) and evaluates it. On failure it returns a
	// captured stack trace string wrapped in the error.
	InstantiateAndEvaluate(moduleID int, resolve ModuleResolver) error

	// CallGlobalFunction calls a function reachable from the global object
	// by dotted path (e.g. "__module__.fetch") with the given arguments,
	// converted through the Value Bridge, returning the converted result.
	CallGlobalFunction(path string, args ...any) (any, error)

	// RegisterFinalizer arranges for finalize to be invoked exactly once,
	// on this runtime's own goroutine, when the script-engine object
	// previously returned by a class/template wrap for external is
	// garbage collected. Used by the Resource Table and Weak Handle Table
	// to drive two-phase release (see spec §4.3/§4.4).
	RegisterFinalizer(external any, finalize func(external any)) error
}

// Config carries the tuning knobs the Runtime exposes to either backend.
type Config struct {
	MemoryLimitMB    int
	ExecutionTimeout time.Duration
	MainWakeupBound  time.Duration
}

// BackendFactory constructs a new Engine instance for the named backend.
type BackendFactory func(cfg Config) (Engine, error)

var backends = map[string]BackendFactory{}

// RegisterBackend is called from each backend package's init(), gated by
// that package's build tag, so exactly one backend registers itself per
// build (-tags v8 selects v8engine; the default build selects quickjs).
// This mirrors the teacher's worker.go factory-by-build-tag pattern
// generalized from a two-branch if/else to an open registry.
func RegisterBackend(name string, factory BackendFactory) {
	backends[name] = factory
}

// NewEngine constructs the engine registered under name. Callers (the root
// Runtime) pass "v8" or "quickjs"; an empty name selects whichever single
// backend is compiled in.
func NewEngine(name string, cfg Config) (Engine, error) {
	if name == "" {
		for _, f := range backends {
			return f(cfg)
		}
		return nil, errNoBackend
	}
	f, ok := backends[name]
	if !ok {
		return nil, errNoBackend
	}
	return f(cfg)
}

var errNoBackend = errBackend("no script engine backend registered for this build")

type errBackend string

func (e errBackend) Error() string { return string(e) }
