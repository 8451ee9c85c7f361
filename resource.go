package deskrt

import (
	"sync"

	"github.com/google/uuid"
)

// ResourceTag discriminates the native type a Resource Handle wraps.
type ResourceTag int

const (
	// TagDummy marks a list's sentinel head. It is never a live resource.
	TagDummy ResourceTag = iota
	TagWindow
	TagHTTPServer
	TagGeneric
)

// External is the stable back-pointer handed to the script engine as
// finalizer context. Per spec §9 this must be a slot id, never a raw
// native pointer — the pointer can go stale if native deinit precedes GC,
// while the id lookup simply reports HandleExpired.
type External struct {
	Runtime    *Runtime
	ResourceID int32
}

// ResourceHandle is one entry in a ResourceTable's intrusive list.
type ResourceHandle struct {
	id       int32
	tag      ResourceTag
	native   any
	deinited bool
	onDeinit func()

	// diagID is a stable external identifier for diagnostics/logging —
	// the int32 slot id is the bridge currency per spec §3, but it gets
	// reused across a long-running process in a way that makes log
	// correlation ambiguous, so every resource also gets a uuid.
	diagID uuid.UUID

	next, prev int32 // slot ids; 0 is the sentinel Dummy head's own id in each list
}

// resourceList is one of the Resource Table's two intrusive lists
// (windows, generic), with a sentinel Dummy head so list maintenance never
// special-cases "empty list", per spec §3.
type resourceList struct {
	head int32 // sentinel Dummy handle's id
	last int32 // tail, for O(1) append
}

// ResourceTable owns every native resource exposed to script as an opaque
// handle. Grounded on spec §4.3: slice-backed free list indexed by id
// (Go has no stable struct addresses once a slice grows, so ids — not
// pointers — are the stable currency), preserving the next/prev slot-id
// linking spec §3 describes.
type ResourceTable struct {
	mu      sync.Mutex
	slots   []ResourceHandle // index 0 unused; id == slot index
	windows resourceList
	generic resourceList

	activeWindow int32 // 0 == none
	windowCount  int
}

// NewResourceTable constructs an empty table with both lists' Dummy
// sentinels installed.
func NewResourceTable() *ResourceTable {
	t := &ResourceTable{slots: make([]ResourceHandle, 1)} // slot 0 is invalid
	t.windows.head = t.appendSentinel()
	t.windows.last = t.windows.head
	t.generic.head = t.appendSentinel()
	t.generic.last = t.generic.head
	return t
}

func (t *ResourceTable) appendSentinel() int32 {
	id := int32(len(t.slots))
	t.slots = append(t.slots, ResourceHandle{id: id, tag: TagDummy})
	return id
}

func (t *ResourceTable) listFor(tag ResourceTag) *resourceList {
	if tag == TagWindow {
		return &t.windows
	}
	return &t.generic
}

// Create appends a handle to the list matching tag and returns its id and
// a freshly heap-allocated External back-pointer (invariant 1:
// external.resource_id == id always). The External is deliberately NOT
// retained anywhere inside the table itself: it is the stand-in for the
// script-engine's wrapper object, and the only thing that is allowed to
// free this slot is that wrapper becoming unreachable (invariant 3) — if
// the table kept its own reference, the External could never become
// unreachable and the finalizer path would never fire. Callers that wrap
// a resource for script must pass this same pointer to
// core.Engine.RegisterFinalizer.
func (t *ResourceTable) Create(tag ResourceTag, native any, onDeinit func()) (int32, *External) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := int32(len(t.slots))
	h := ResourceHandle{id: id, tag: tag, native: native, onDeinit: onDeinit, diagID: uuid.New()}
	t.slots = append(t.slots, h)

	list := t.listFor(tag)
	tail := &t.slots[list.last]
	tail.next = id
	t.slots[id].prev = list.last
	list.last = id

	if tag == TagWindow {
		t.windowCount++
		if t.activeWindow == 0 {
			t.activeWindow = id
		}
	}
	return id, &External{ResourceID: id}
}

// StartDeinit runs the tag-specific synchronous teardown (spec §4.3): for
// windows, decrements window_count and re-elects the active window; other
// tags defer the actual native close to the caller (e.g. an HTTP server's
// async shutdown callback calling back into Destroy once confirmed). After
// this call deinited = true and the slot remains live until Destroy.
func (t *ResourceTable) StartDeinit(id int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := &t.slots[id]
	if h.tag == TagDummy {
		return ErrUnknownResource{ID: id}
	}
	if h.deinited {
		return nil
	}
	h.deinited = true

	if h.tag == TagWindow {
		t.windowCount--
		if t.activeWindow == id {
			t.activeWindow = t.electActiveWindowLocked()
		}
	}
	return nil
}

// electActiveWindowLocked walks the window list past the Dummy head and
// picks the first live (non-deinited) handle, per spec §4.3's
// "active-window re-election" rule. Must be called with t.mu held.
func (t *ResourceTable) electActiveWindowLocked() int32 {
	for id := t.slots[t.windows.head].next; id != 0; id = t.slots[id].next {
		if !t.slots[id].deinited {
			return id
		}
	}
	return 0
}

// Destroy is invoked from the script-engine finalizer path only (spec
// invariant 3: a slot is freed only from the finalizer path, never from
// explicit deinit). If StartDeinit has not yet run, Destroy runs it first.
// It then fires onDeinit exactly once, unlinks the slot from its list
// (fixing next/prev), and frees the slot for reuse is intentionally NOT
// done — ids are never recycled while any External could still be
// outstanding (spec §3 data model notes), so the slot is simply marked
// TagDummy in place.
func (t *ResourceTable) Destroy(id int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := &t.slots[id]
	if h.tag == TagDummy {
		return ErrUnknownResource{ID: id}
	}
	if !h.deinited {
		t.mu.Unlock()
		err := t.StartDeinit(id)
		t.mu.Lock()
		if err != nil {
			return err
		}
	}

	if h.onDeinit != nil {
		h.onDeinit()
	}

	list := t.listFor(h.tag)
	prev, next := h.prev, h.next
	t.slots[prev].next = next
	if next != 0 {
		t.slots[next].prev = prev
	} else {
		list.last = prev
	}

	h.tag = TagDummy
	h.native = nil
	h.onDeinit = nil
	h.next, h.prev = 0, 0
	return nil
}

// DiagID returns the stable diagnostic uuid for id, for log correlation
// across a resource's lifetime (slot ids get reused across a long process
// uptime; a uuid never does).
func (t *ResourceTable) DiagID(id int32) (uuid.UUID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id <= 0 || int(id) >= len(t.slots) || t.slots[id].tag == TagDummy {
		return uuid.Nil, ErrUnknownResource{ID: id}
	}
	return t.slots[id].diagID, nil
}

// Lookup returns the native value stored for id, or ErrUnknownResource if
// the slot was never created or has since been destroyed.
func (t *ResourceTable) Lookup(id int32) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id <= 0 || int(id) >= len(t.slots) || t.slots[id].tag == TagDummy {
		return nil, ErrUnknownResource{ID: id}
	}
	return t.slots[id].native, nil
}

// ActiveWindow returns the current active window id, or 0 if window_count
// is 0 (spec invariant 3/testable property 3).
func (t *ResourceTable) ActiveWindow() int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeWindow
}

// WindowCount reports the live window count.
func (t *ResourceTable) WindowCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.windowCount
}

// ErrUnknownResource is returned when a resource id has no live slot.
type ErrUnknownResource struct{ ID int32 }

func (e ErrUnknownResource) Error() string {
	return "deskrt: unknown or destroyed resource id"
}
