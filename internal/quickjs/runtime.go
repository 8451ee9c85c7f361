// Package quickjs is the default core.Engine backend: a cgo-free QuickJS
// build via modernc.org/quickjs, modernc.org/libquickjs and modernc.org/libc.
// Selected whenever the binary is built without -tags v8 (see
// internal/v8engine for that alternative).
//
// Grounded on the teacher's internal/quickjs/runtime.go (qjsRuntime: single
// VM/context pair, eval/registerGoFunc helpers, C-API binary transfer with
// a base64-chunked fallback when the VM-internals extraction isn't safe)
// and pool.go's setup-function wiring, generalized the same way as
// internal/v8engine: one VM for the runtime's whole lifetime rather than a
// pool of pre-warmed per-request contexts.
package quickjs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime"

	"github.com/scriptkit/deskrt/internal/core"
	"modernc.org/quickjs"
)

func init() {
	core.RegisterBackend("quickjs", New)
}

// Engine wraps a single QuickJS runtime/context pair.
type Engine struct {
	rt      *quickjs.Runtime
	ctx     *quickjs.Context
	modules map[int]string
	nextMod int
}

// New constructs a QuickJS-backed Engine. cfg.MemoryLimitMB maps to
// QuickJS's JS_SetMemoryLimit, exposed by the wrapper as SetMemoryLimit.
func New(cfg core.Config) (core.Engine, error) {
	rt := quickjs.NewRuntime()
	if cfg.MemoryLimitMB > 0 {
		rt.SetMemoryLimit(uint64(cfg.MemoryLimitMB) * 1024 * 1024)
	}
	ctx := rt.NewContext()
	return &Engine{rt: rt, ctx: ctx, modules: make(map[int]string)}, nil
}

func (e *Engine) Eval(js string) error {
	v, err := e.ctx.Eval(js, "eval.js")
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

func (e *Engine) EvalString(js string) (string, error) {
	v, err := e.ctx.Eval(js, "eval.js")
	if err != nil {
		return "", err
	}
	defer v.Free()
	return v.String(), nil
}

// RegisterFunc registers a Go function as a global callable. Grounded on
// the teacher's registerGoFunc helper: arguments are marshaled through
// QuickJS's own JSON.stringify/parse bridge rather than per-type C calls,
// since modernc.org/quickjs's cgo-free Value type is lower-level than
// v8go's and a JSON round-trip is what the teacher's helpers.go does for
// anything beyond scalars.
func (e *Engine) RegisterFunc(name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("%s: not a function", name)
	}
	return e.ctx.SetFunc(name, func(args []quickjs.Value) quickjs.Value {
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
			return e.ctx.Undefined()
		}
		v, err := e.goAnyToJSValue(out[0].Interface())
		if err != nil {
			return e.ctx.Undefined()
		}
		return v
	})
}

func (e *Engine) SetGlobal(name string, value any) error {
	v, err := e.goAnyToJSValue(value)
	if err != nil {
		return err
	}
	return e.ctx.Global().Set(name, v)
}

// RunMicrotasks drains one round of QuickJS jobs (promise reactions,
// async/await continuations). The Event Loop Driver calls this in a loop
// to reach fixed-point, same as with the V8 backend.
func (e *Engine) RunMicrotasks() {
	for e.rt.ExecutePendingJob() {
	}
}

func (e *Engine) Interrupt() {
	e.rt.SetInterruptHandler(func() int { return 1 })
}

func (e *Engine) Dispose() {
	e.ctx.Free()
	e.rt.Free()
}

func (e *Engine) BinaryMode() string { return "ab" }

// ReadBinaryFromJS reads an ArrayBuffer global via QuickJS's C API.
// Grounded on the teacher's direct VM-internals extraction with a
// base64-chunked JSON fallback for builds where unsafe pointer extraction
// isn't available; kept here as the always-safe path since this runtime
// has no per-request latency budget pressuring it toward the unsafe path.
func (e *Engine) ReadBinaryFromJS(globalName string) ([]byte, error) {
	encoded, err := e.EvalString(fmt.Sprintf(
		`(function(){var b=globalThis[%q]; if(!b) return ""; var u=new Uint8Array(b); var s=""; for (var i=0;i<u.length;i++) s+=String.fromCharCode(u[i]); return btoa(s);})()`,
		globalName))
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return nil, core.CantConvert{From: globalName, To: "[]byte"}
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func (e *Engine) WriteBinaryToJS(globalName string, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	js := fmt.Sprintf(
		`(function(){var s=atob(%q); var u=new Uint8Array(s.length); for (var i=0;i<s.length;i++) u[i]=s.charCodeAt(i); globalThis[%q]=u.buffer;})()`,
		encoded, globalName)
	return e.Eval(js)
}

func (e *Engine) CompileModule(source, filename string) (int, error) {
	if _, err := e.ctx.CompileModule(source, filename); err != nil {
		return 0, core.CompileError{File: filename, Err: err}
	}
	e.nextMod++
	e.modules[e.nextMod] = source
	return e.nextMod, nil
}

func (e *Engine) InstantiateAndEvaluate(moduleID int, resolve core.ModuleResolver) error {
	source, ok := e.modules[moduleID]
	if !ok {
		return fmt.Errorf("unknown module id %d", moduleID)
	}
	e.ctx.SetModuleLoader(func(specifier string) (string, error) {
		resolved, err := resolve(moduleID, specifier)
		if err != nil {
			return "", err
		}
		return e.modules[resolved], nil
	})
	if err := e.Eval(source); err != nil {
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
	call := path + "("
	for i, a := range jsArgs {
		if i > 0 {
			call += ","
		}
		call += a
	}
	call += ")"
	return e.EvalString(call)
}

// RegisterFinalizer arranges for finalize to run exactly once when
// external becomes unreachable. modernc.org/quickjs's Value does not
// expose per-object weak refs to Go callbacks either (QuickJS's own
// JS_SetOpaque + class finalizer pair lives entirely on the C side this
// wrapper doesn't surface), so as with the v8engine backend this drives
// finalization off Go's own collector via runtime.SetFinalizer — the same
// handle-cleanup pattern other_examples' daios-ai-msg__builtin_ffi.go and
// oazmi-quiccjs__runtime.go use.
func (e *Engine) RegisterFinalizer(external any, finalize func(external any)) error {
	if reflect.ValueOf(external).Kind() != reflect.Ptr {
		return fmt.Errorf("RegisterFinalizer: external must be a pointer, got %T", external)
	}
	runtime.SetFinalizer(external, func(obj any) {
		finalize(obj)
	})
	return nil
}
