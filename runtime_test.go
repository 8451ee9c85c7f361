package deskrt

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/scriptkit/deskrt/internal/core"
)

// fakeEngine is a minimal core.Engine double so Runtime's lifecycle,
// Event Loop Driver and Shutdown Sequence can be exercised deterministically
// without depending on the real V8/QuickJS bindings being fetchable in a
// test environment.
type fakeEngine struct {
	microtaskRuns int
	disposed      bool

	finalizersMu sync.Mutex
	finalizers   []func()
}

func (f *fakeEngine) Eval(js string) error                       { return nil }
func (f *fakeEngine) EvalString(js string) (string, error)       { return "", nil }
func (f *fakeEngine) RegisterFunc(name string, fn any) error     { return nil }
func (f *fakeEngine) SetGlobal(name string, value any) error     { return nil }
func (f *fakeEngine) RunMicrotasks()                             { f.microtaskRuns++ }
func (f *fakeEngine) Interrupt()                                 {}
func (f *fakeEngine) Dispose()                                   { f.disposed = true }
func (f *fakeEngine) CompileModule(source, filename string) (int, error) {
	return 1, nil
}
func (f *fakeEngine) InstantiateAndEvaluate(moduleID int, resolve core.ModuleResolver) error {
	return nil
}
func (f *fakeEngine) CallGlobalFunction(path string, args ...any) (any, error) { return nil, nil }

// RegisterFinalizer records the callback instead of invoking v8go/quickjs's
// real GC-driven path (see internal/v8engine, internal/quickjs) — tests
// call RunFinalizers to simulate the moment the script engine's wrapper
// object for external is collected.
func (f *fakeEngine) RegisterFinalizer(external any, finalize func(external any)) error {
	f.finalizersMu.Lock()
	f.finalizers = append(f.finalizers, func() { finalize(external) })
	f.finalizersMu.Unlock()
	return nil
}

// RunFinalizers invokes and clears every finalizer registered so far, in
// registration order.
func (f *fakeEngine) RunFinalizers() {
	f.finalizersMu.Lock()
	pending := f.finalizers
	f.finalizers = nil
	f.finalizersMu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func init() {
	core.RegisterBackend("fake", func(cfg core.Config) (core.Engine, error) {
		return &fakeEngine{}, nil
	})
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(RuntimeConfig{Backend: "fake", Logger: log.New(os.Stderr, "", 0)}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := rt.Enter(); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	return rt
}

func TestRunTerminatesWhenWindowCountReachesZero(t *testing.T) {
	rt := newTestRuntime(t)
	defer rt.Shutdown()
	fe := rt.Engine.(*fakeEngine)

	w := NewFakeWindow(0, 16)
	id, _ := rt.RegisterWindow(w)
	w.id = id // FakeWindow reports its own resource id back to the driver

	w.Enqueue(WindowEvent{Kind: EventClose})

	if err := rt.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rt.Res.WindowCount() != 0 {
		t.Fatalf("WindowCount() = %d, want 0", rt.Res.WindowCount())
	}

	// Run() only ever drives StartDeinit (invariant 3); the window's close
	// callback, and thus w.Closed(), only fires once the engine's finalizer
	// runs and calls Destroy.
	if w.Closed() {
		t.Fatal("window closed before its finalizer ran")
	}
	fe.RunFinalizers()
	if !w.Closed() {
		t.Fatal("expected window to be closed once its finalizer ran")
	}
}

// TestResourceFreedOnlyThroughEngineFinalizer is the test requested by spec
// invariant 3 ("a resource slot is freed only from the script finalizer
// path, never from explicit deinit"): StartDeinit alone must leave the slot
// and the native resource alive, and only RunFinalizers (standing in for
// the script engine's GC collecting the wrapper External) may call Destroy.
func TestResourceFreedOnlyThroughEngineFinalizer(t *testing.T) {
	rt := newTestRuntime(t)
	defer rt.Shutdown()
	fe := rt.Engine.(*fakeEngine)

	w := NewFakeWindow(0, 16)
	id, _ := rt.RegisterWindow(w)
	w.id = id

	if err := rt.Res.StartDeinit(id); err != nil {
		t.Fatalf("StartDeinit: %v", err)
	}
	if w.Closed() {
		t.Fatal("StartDeinit must not close the native window")
	}
	if _, err := rt.Res.Lookup(id); err != nil {
		t.Fatalf("Lookup after StartDeinit: %v, want slot still live", err)
	}

	fe.RunFinalizers()

	if !w.Closed() {
		t.Fatal("expected window to be closed once the engine finalizer ran")
	}
	if _, err := rt.Res.Lookup(id); err == nil {
		t.Fatal("expected slot to be freed once the engine finalizer ran")
	}
}

func TestShutdownDisposesEngineAndClosesWorkQueue(t *testing.T) {
	rt := newTestRuntime(t)
	fe := rt.Engine.(*fakeEngine)

	if err := rt.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !fe.disposed {
		t.Fatal("expected engine to be disposed")
	}
	if rt.entered {
		t.Fatal("expected Shutdown to exit the runtime")
	}
}

func TestLoadAndRunRequiresEnter(t *testing.T) {
	rt, err := New(RuntimeConfig{Backend: "fake", Logger: log.New(os.Stderr, "", 0)}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rt.Shutdown()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.js")
	if err := os.WriteFile(path, []byte("globalThis.x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := rt.LoadAndRun(path); err == nil {
		t.Fatal("expected LoadAndRun to fail before Enter")
	}
}

func TestRunIsolatedTestsReportsFailures(t *testing.T) {
	rt := newTestRuntime(t)
	defer rt.Shutdown()

	report := rt.RunIsolatedTests([]IsolatedTest{
		{Name: "passes", ScriptFn: func() error { return nil }},
		{Name: "fails", ScriptFn: func() error { return errBoom{} }},
	})

	if report.Total != 2 || report.Passed != 1 {
		t.Fatalf("got %+v", report)
	}
	if report.AllPassed() {
		t.Fatal("expected AllPassed() to be false")
	}
}
