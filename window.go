package deskrt

// WindowEventKind enumerates the window events the Event Loop Driver
// recognizes (spec §4.8 step 1): "Window close, resize, keyboard, mouse
// down/up/move are recognized."
type WindowEventKind int

const (
	EventClose WindowEventKind = iota
	EventResize
	EventKeyDown
	EventKeyUp
	EventMouseDown
	EventMouseUp
	EventMouseMove
)

// WindowEvent is a translated native event record dispatched through the
// Value Bridge to the owning window's script-side callback.
type WindowEvent struct {
	Kind WindowEventKind
	X, Y int    // mouse position, when applicable
	Key  string // key name, when applicable
}

// Window is the native-side collaborator the Event Loop Driver drives.
// Real graphics/window/audio backends are out of scope per spec §1 — they
// are treated as a black box behind this interface, same as the bytecode
// VM and GUI widget layout. Production builds of the full desktop runtime
// supply a concrete implementation backed by the windowing toolkit; this
// package ships only the interface and a deterministic fake for tests.
type Window interface {
	// ID is the resource id this window was registered under.
	ID() int32

	// PollEvents returns any events observed since the last call,
	// without blocking.
	PollEvents() []WindowEvent

	// Update invokes the user's on_update callback for one frame.
	Update() error

	// FrameDelay is this window's requested inter-frame delay, used by
	// the driver to take the minimum across all open windows (spec
	// §4.8 step 3).
	FrameDelay() (ms int)

	// Close releases the native window. Called from ResourceTable's
	// start_deinit/destroy path, never directly by the driver.
	Close() error
}

// FakeWindow is a deterministic Window test double: events are queued by
// the test via Enqueue, Update just counts invocations.
type FakeWindow struct {
	id         int32
	queued     []WindowEvent
	updates    int
	frameDelay int
	closed     bool
}

func NewFakeWindow(id int32, frameDelayMS int) *FakeWindow {
	return &FakeWindow{id: id, frameDelay: frameDelayMS}
}

func (w *FakeWindow) ID() int32 { return w.id }

func (w *FakeWindow) Enqueue(ev WindowEvent) { w.queued = append(w.queued, ev) }

func (w *FakeWindow) PollEvents() []WindowEvent {
	out := w.queued
	w.queued = nil
	return out
}

func (w *FakeWindow) Update() error { w.updates++; return nil }

func (w *FakeWindow) Updates() int { return w.updates }

func (w *FakeWindow) FrameDelay() int { return w.frameDelay }

func (w *FakeWindow) Close() error { w.closed = true; return nil }

func (w *FakeWindow) Closed() bool { return w.closed }
