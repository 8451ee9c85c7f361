// Package reactor implements the dedicated-thread I/O poller described in
// spec §4.1: a goroutine, locked to its OS thread, that blocks on the
// reactor's backend descriptor and wakes the main thread when I/O is ready.
//
// Grounded on the single-interface-per-OS-implementation shape of
// other_examples/momentics-hioload-ws__reactor.go, generalized from a
// registration-based multiplexer to the spec's simpler "one backend
// descriptor, block with timeout, wake on ready" contract — the Reactor
// itself (libuv-equivalent) is an external collaborator (§1); this package
// only supplies the platform-specific blocking wait around it.
package reactor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Backend is the platform-specific blocking wait around a reactor's backend
// descriptor. Implementations live in epoll_linux.go, select_unix.go, and
// iocp_windows.go, each behind its own build tag.
type Backend interface {
	// Wait blocks until the backend descriptor is ready or timeout elapses.
	// A negative timeout blocks indefinitely. Returns nil on ready-or-timeout,
	// a non-nil error only for unrecoverable OS failures.
	Wait(timeout time.Duration) error

	// Close releases OS resources held by the backend (epoll fd, etc.).
	Close() error
}

// BackendFD is satisfied by a reactor exposing the descriptor the Poller
// should wait on — the "reactor's backend descriptor" of spec §4.1.
type BackendFD interface {
	// BackendFD returns the OS descriptor/handle to poll and the timeout
	// (in milliseconds; negative means "no pending work, block forever")
	// the reactor currently wants.
	BackendFD() (fd uintptr, timeoutMS int)

	// WakeSelf submits a dummy async event through the reactor so a blocked
	// poller wakes even though no real I/O occurred — used both by
	// Shutdown (spec §4.10 step 1) and whenever the reactor is re-armed
	// with new work after the Poller already started waiting.
	WakeSelf() error
}

// Poller is the dedicated OS thread of spec §4.1. One Poller exists per
// Runtime. It owns no script-engine state; it only ever touches its OS
// backend and the shared wakeup channel.
type Poller struct {
	reactor BackendFD
	newWait func(fd uintptr) (Backend, error)

	wakeupCh chan struct{} // buffered(1); main thread drains it
	closing  atomic.Bool
	done     chan struct{} // closed when the poller goroutine exits

	mu      sync.Mutex
	backend Backend
}

// New starts the poller goroutine immediately, mirroring spec §4.1's
// "repeatedly blocks... then sets a shared event". wakeupCh is shared with
// the Event Loop Driver; newWait constructs the per-OS Backend for a given
// descriptor (swapped out when the reactor's backend fd changes, which
// epoll/kqueue-backed reactors never do in practice but IOCP may on handle
// churn).
func New(reactor BackendFD, newWait func(fd uintptr) (Backend, error), wakeupCh chan struct{}) *Poller {
	p := &Poller{
		reactor:  reactor,
		newWait:  newWait,
		wakeupCh: wakeupCh,
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Poller) run() {
	defer close(p.done)
	for !p.closing.Load() {
		fd, timeoutMS := p.reactor.BackendFD()

		p.mu.Lock()
		backend := p.backend
		if backend == nil {
			var err error
			backend, err = p.newWait(fd)
			if err != nil {
				p.mu.Unlock()
				// Unrecoverable: degrade to a bounded sleep so the main
				// thread still gets periodic liveness ticks (spec §5's
				// 4s bound rationale) instead of a hot loop.
				time.Sleep(50 * time.Millisecond)
				continue
			}
			p.backend = backend
		}
		p.mu.Unlock()

		timeout := -1 * time.Millisecond
		if timeoutMS >= 0 {
			timeout = time.Duration(timeoutMS) * time.Millisecond
		}

		if err := backend.Wait(timeout); err != nil {
			// Treat a hard backend error as "ready" so the main thread
			// gets a chance to observe and react (e.g. recreate the
			// reactor) rather than the poller looping forever on a
			// broken descriptor.
		}

		select {
		case p.wakeupCh <- struct{}{}:
		default:
			// Main thread hasn't drained the previous wakeup yet; it will
			// still process the reactor on its next drain, so dropping
			// this signal is safe (spec §4.8: the reactor is drained
			// exactly once per wake-up, not once per signal).
		}
	}
}

// Close implements spec §4.10 step 1: set the close flag, wake the poller
// via a dummy reactor event, then spin until it acknowledges.
func (p *Poller) Close() error {
	p.closing.Store(true)
	_ = p.reactor.WakeSelf()

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		// The spec calls for spinning until acknowledgment; a bounded wait
		// here prevents a wedged backend from hanging process shutdown
		// forever, at the cost of a leaked goroutine in that failure mode.
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend != nil {
		return p.backend.Close()
	}
	return nil
}
