package deskrt

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/scriptkit/deskrt/internal/core"
	"github.com/scriptkit/deskrt/internal/reactor"
	"github.com/scriptkit/deskrt/internal/workqueue"
)

// Runtime is the process-singleton described in spec §3: it exclusively
// owns the script engine, the Resource Table, the Weak Handle Table, the
// Promise Registry, the Value Bridge, the Module Loader, the Reactor
// Poller and the Work Queue. Lifecycle: init -> enter -> run -> exit ->
// deinit.
type Runtime struct {
	cfg RuntimeConfig

	Engine   core.Engine
	Res      *ResourceTable
	Handles  *WeakHandleTable
	Promises *PromiseRegistry
	Bridge   *Bridge
	Modules  *ModuleLoader

	workq  *workqueue.Queue
	poller *reactor.Poller
	wakeup chan struct{}

	windowsMu sync.Mutex
	windows   map[int32]Window

	uncaughtException bool
	restartRequested  bool

	entered bool
}

// New initializes a Runtime (spec's "init" step): constructs every table
// and the script engine, but does not yet enter a script scope.
func New(cfg RuntimeConfig, newReactorWait func(fd uintptr) (reactor.Backend, error), reactorFD reactor.BackendFD) (*Runtime, error) {
	cfg = cfg.withDefaults()

	engine, err := core.NewEngine(cfg.Backend, core.Config{
		MemoryLimitMB:    cfg.MemoryLimitMB,
		ExecutionTimeout: cfg.ExecutionTimeout,
		MainWakeupBound:  cfg.MainWakeupTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing script engine: %w", err)
	}

	wakeup := make(chan struct{}, 1)
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	r := &Runtime{
		cfg:      cfg,
		Engine:   engine,
		Res:      NewResourceTable(),
		Handles:  NewWeakHandleTable(),
		Promises: NewPromiseRegistry(),
		wakeup:   wakeup,
		windows:  make(map[int32]Window),
		workq:    workqueue.New(workerCount, wakeup),
	}
	r.Bridge = NewBridge(r.Handles)
	r.Modules = NewModuleLoader(engine)

	if reactorFD != nil {
		r.poller = reactor.New(reactorFD, newReactorWait, wakeup)
	}

	return r, nil
}

// Enter marks the runtime as having an active script scope. Spec §9
// requires every engine-touching path to enter isolate/handle/context
// scopes and exit on every path; with a single long-lived engine instance
// per Runtime (rather than the teacher's per-request pooled isolates),
// that discipline collapses to this one entered flag plus Exit's
// symmetric clear — there is no per-call scope to open and close.
func (r *Runtime) Enter() error {
	if r.entered {
		return fmt.Errorf("runtime already entered")
	}
	r.entered = true
	return nil
}

// Exit clears the entered flag. Safe to call multiple times.
func (r *Runtime) Exit() {
	r.entered = false
}

// LoadAndRun compiles path as the main module, evaluates it, and registers
// the uncaught-exception/promise-rejection hooks InstantiateAndEvaluate's
// error return already encodes (MainScriptError carries the captured
// stack, per spec §4.7).
func (r *Runtime) LoadAndRun(path string) error {
	if !r.entered {
		return fmt.Errorf("runtime not entered")
	}
	id, err := r.Modules.LoadMain(path)
	if err != nil {
		return err
	}
	if err := r.Modules.Run(id); err != nil {
		r.uncaughtException = true
		return err
	}
	return nil
}

// RegisterWindow adds a window both to the Resource Table (so it
// participates in active-window re-election and the windows list spec §3
// describes) and to the event loop's frame-update set. It also registers
// the Resource Table's engine-driven finalizer against the returned
// External, so the slot is only ever actually freed once the script
// engine's wrapper for it is collected (spec invariant 3) — native
// window-close handling (eventloop.go's dispatchWindowEvents) only ever
// calls StartDeinit, never Destroy.
func (r *Runtime) RegisterWindow(w Window) (int32, *External) {
	var id int32
	id, ext := r.Res.Create(TagWindow, w, func() {
		_ = w.Close()
		r.windowsMu.Lock()
		delete(r.windows, id)
		r.windowsMu.Unlock()
	})
	ext.Runtime = r
	r.windowsMu.Lock()
	r.windows[id] = w
	r.windowsMu.Unlock()

	if err := r.Engine.RegisterFinalizer(ext, func(external any) {
		_ = r.Res.Destroy(id)
	}); err != nil {
		r.cfg.Logger.Printf("deskrt: registering finalizer for window %d: %v", id, err)
	}
	return id, ext
}

// WaitForWakeup blocks until the main wakeup channel fires or
// MainWakeupTimeout elapses, per spec §5's "4s bound... to allow periodic
// liveness checks". Returns true if woken by a signal, false on timeout.
func (r *Runtime) WaitForWakeup() bool {
	timer := time.NewTimer(r.cfg.MainWakeupTimeout)
	defer timer.Stop()
	select {
	case <-r.wakeup:
		return true
	case <-timer.C:
		return false
	}
}
