// Package deskrt is the runtime orchestration layer of a desktop JavaScript
// runtime: it owns a single script engine instance, multiplexes a
// libuv-style reactor with script-engine microtasks and a worker-thread
// pool, manages native resource lifetimes exposed to script as opaque
// handles, and sequences application lifecycle (script load, frame loop,
// dev-mode restart, isolated tests, shutdown).
//
// Bytecode VM, GUI widget layout, graphics/window/audio backends, the HTTP
// server, platform sockets, and script API bindings are external
// collaborators — see internal/v8engine and internal/quickjs for the one
// boundary this package does own: the script engine itself.
package deskrt
