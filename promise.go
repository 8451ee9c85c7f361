package deskrt

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Resolver is the script-engine side of a pending promise: whatever the
// backend's promise-resolver type is, wrapped so this package never
// imports v8go or quickjs directly.
type Resolver struct {
	Resolve func(value any)
	Reject  func(value any)
}

// KnownError is an error enum member carrying both a message and a
// numeric code, per spec §4.5/testable property 12 ("a rejected promise
// whose error matches a known enum member carries a code property").
type KnownError struct {
	Message string
	Code    int
}

func (e KnownError) Error() string { return e.Message }

// PromiseRegistry is the id-keyed table of outstanding script-side
// resolvers described in spec §4.5/§3 (Promise Entry). Grounded on the
// teacher's queues.go buildQueueBinding: each async native call creates a
// resolver, stores it keyed by an id, and resolve/reject look it up once
// and remove it — generalized from "queue consumer promises only" to any
// async native call across the runtime.
type PromiseRegistry struct {
	mu      sync.Mutex
	entries map[int32]Resolver
	nextID  atomic.Int32

	// unhandled records rejection values from promises the script never
	// attached a handler to (scenario S4). The teacher's
	// setupUnhandledRejection surfaces this as a PromiseRejectionEvent on
	// globalThis; this runtime is headless, so the Shutdown Sequence logs
	// it instead — ReportUnhandled is the hook an engine backend's
	// unhandled-rejection callback calls into.
	unhandled []string
}

func NewPromiseRegistry() *PromiseRegistry {
	return &PromiseRegistry{entries: make(map[int32]Resolver)}
}

// ReportUnhandled records value (already stringified by the engine side)
// as a rejection with no handler, for the Shutdown Sequence to report.
func (p *PromiseRegistry) ReportUnhandled(value string) {
	p.mu.Lock()
	p.unhandled = append(p.unhandled, value)
	p.mu.Unlock()
}

// UnhandledReport returns every unhandled-rejection value recorded so
// far, in recording order.
func (p *PromiseRegistry) UnhandledReport() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.unhandled))
	copy(out, p.unhandled)
	return out
}

// Add registers r and returns its id (invariant 5: a promise id present in
// the registry has a resolver awaiting exactly one resolution).
func (p *PromiseRegistry) Add(r Resolver) int32 {
	id := p.nextID.Add(1)
	p.mu.Lock()
	p.entries[id] = r
	p.mu.Unlock()
	return id
}

// Resolve converts value through the caller's Value Bridge step (callers
// pass an already-bridged value) and invokes the resolver exactly once,
// then removes the slot. Resolving an unknown or already-resolved id is a
// no-op — testable property 4 requires no id is ever resolved twice, so a
// second call after removal must not double-invoke a resolver.
func (p *PromiseRegistry) Resolve(id int32, value any) {
	p.mu.Lock()
	r, ok := p.entries[id]
	if ok {
		delete(p.entries, id)
	}
	p.mu.Unlock()
	if ok && r.Resolve != nil {
		r.Resolve(value)
	}
}

// Reject invokes the resolver's reject path. A KnownError is converted to
// a script error object carrying message + numeric code (spec §4.5);
// anything else is stringified, matching the teacher's fallback error
// formatting in engine.go.
func (p *PromiseRegistry) Reject(id int32, err error) {
	p.mu.Lock()
	r, ok := p.entries[id]
	if ok {
		delete(p.entries, id)
	}
	p.mu.Unlock()
	if !ok || r.Reject == nil {
		return
	}
	if ke, isKnown := err.(KnownError); isKnown {
		r.Reject(ke)
		return
	}
	r.Reject(errString(err))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}

// Pending reports how many resolvers are still outstanding; used by the
// Shutdown Sequence's quiescence check (spec testable property 5).
func (p *PromiseRegistry) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
