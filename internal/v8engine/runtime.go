//go:build v8

// Package v8engine is the V8-backed core.Engine, selected with -tags v8.
// Grounded on the teacher's internal/v8engine/runtime.go (v8Runtime) and
// pool.go (isolate construction with resource constraints, compile+run,
// microtask pumping), generalized from "one isolate per pooled worker
// request" to "one isolate for the whole runtime's lifetime", since the
// spec's Runtime Context owns a single script engine instance (§3, §4.1).
package v8engine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"runtime"

	"github.com/scriptkit/deskrt/internal/core"
	v8 "github.com/tommie/v8go"
)

func init() {
	core.RegisterBackend("v8", New)
}

// Engine wraps a single v8.Isolate/Context pair and implements core.Engine.
type Engine struct {
	iso     *v8.Isolate
	ctx     *v8.Context
	modules map[int]*compiledModule
	nextMod int
}

type compiledModule struct {
	source, filename string
	script           *v8.UnboundScript
}

// New constructs a V8-backed Engine honoring cfg.MemoryLimitMB.
func New(cfg core.Config) (core.Engine, error) {
	var iso *v8.Isolate
	if cfg.MemoryLimitMB > 0 {
		heap := uint64(cfg.MemoryLimitMB) * 1024 * 1024
		iso = v8.NewIsolate(v8.WithResourceConstraints(heap/2, heap))
	} else {
		iso = v8.NewIsolate()
	}
	ctx := v8.NewContext(iso)
	return &Engine{iso: iso, ctx: ctx, modules: make(map[int]*compiledModule)}, nil
}

func (e *Engine) Eval(js string) error {
	_, err := e.ctx.RunScript(js, "eval.js")
	return err
}

func (e *Engine) EvalString(js string) (string, error) {
	val, err := e.ctx.RunScript(js, "eval.js")
	if err != nil {
		return "", err
	}
	return val.String(), nil
}

func (e *Engine) RegisterFunc(name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("%s: not a function", name)
	}

	tmpl := v8.NewFunctionTemplate(e.iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()
		in := make([]reflect.Value, fnType.NumIn())
		for i := range in {
			if i < len(args) {
				in[i] = jsToGoArg(args[i], fnType.In(i))
			} else {
				in[i] = reflect.Zero(fnType.In(i))
			}
		}
		out := fnVal.Call(in)
		if len(out) == 0 {
			return nil
		}
		v, err := goAnyToJSValue(e.iso, e.ctx, out[0].Interface())
		if err != nil {
			return nil
		}
		return v
	})
	return e.ctx.Global().Set(name, tmpl.GetFunction(e.ctx))
}

func (e *Engine) SetGlobal(name string, value any) error {
	v, err := goAnyToJSValue(e.iso, e.ctx, value)
	if err != nil {
		return err
	}
	return e.ctx.Global().Set(name, v)
}

// RunMicrotasks drains V8's microtask queue once. Per spec §4.8 the Event
// Loop Driver calls this repeatedly until no new microtasks are produced.
func (e *Engine) RunMicrotasks() {
	e.iso.PerformMicrotaskCheckpoint()
}

func (e *Engine) Interrupt() {
	e.iso.TerminateExecution()
}

func (e *Engine) Dispose() {
	e.ctx.Close()
	e.iso.Dispose()
}

func (e *Engine) BinaryMode() string { return "sab" }

func (e *Engine) ReadBinaryFromJS(globalName string) ([]byte, error) {
	val, err := e.ctx.Global().Get(globalName)
	if err != nil {
		return nil, err
	}
	ab, err := val.AsArrayBuffer()
	if err != nil {
		return nil, core.CantConvert{From: globalName, To: "[]byte"}
	}
	return ab.Bytes(), nil
}

func (e *Engine) WriteBinaryToJS(globalName string, data []byte) error {
	ab := v8.NewArrayBuffer(e.iso, data)
	return e.ctx.Global().Set(globalName, ab.Value())
}

func (e *Engine) CompileModule(source, filename string) (int, error) {
	script, err := e.iso.CompileUnboundScript(source, filename, v8.CompileOptions{})
	if err != nil {
		return 0, core.CompileError{File: filename, Err: err}
	}
	e.nextMod++
	id := e.nextMod
	e.modules[id] = &compiledModule{source: source, filename: filename, script: script}
	return id, nil
}

// InstantiateAndEvaluate runs a previously compiled module. v8go's
// UnboundScript does not expose ES module linking directly, so the
// resolver is invoked ahead of time by the caller's Module Loader (see
// root package moduleloader.go) and this just evaluates the flattened
// script in the shared context.
func (e *Engine) InstantiateAndEvaluate(moduleID int, resolve core.ModuleResolver) error {
	mod, ok := e.modules[moduleID]
	if !ok {
		return fmt.Errorf("unknown module id %d", moduleID)
	}
	_, err := mod.script.Run(e.ctx)
	if err != nil {
		return core.MainScriptError{Err: err}
	}
	return nil
}

func (e *Engine) CallGlobalFunction(path string, args ...any) (any, error) {
	jsArgs := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, core.CantConvert{From: fmt.Sprintf("%T", a), To: "json"}
		}
		jsArgs[i] = string(b)
	}
	call := path + "(" + joinJSON(jsArgs) + ")"
	val, err := e.ctx.RunScript(call, "call.js")
	if err != nil {
		return nil, err
	}
	return val.String(), nil
}

func joinJSON(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

// RegisterFinalizer arranges for finalize to run exactly once, when
// external — the Go pointer standing in for the JS-side wrapper object a
// resource is reachable through — becomes unreachable. v8go exposes no
// per-object weak-callback hook for arbitrary external data, so real
// per-object finalization is instead driven by Go's own collector: the
// same pattern other_examples' oazmi-quiccjs__runtime.go
// (runtime.AddCleanup) and daios-ai-msg__builtin_ffi.go
// (runtime.SetFinalizer) both use to release a native handle once nothing
// keeps it alive. This fires once, on its own goroutine, the moment
// external is collected — a real single-object hook, just GC-triggered by
// Go rather than by V8's own GC.
func (e *Engine) RegisterFinalizer(external any, finalize func(external any)) error {
	if reflect.ValueOf(external).Kind() != reflect.Ptr {
		return fmt.Errorf("RegisterFinalizer: external must be a pointer, got %T", external)
	}
	runtime.SetFinalizer(external, func(obj any) {
		finalize(obj)
	})
	return nil
}
