//go:build windows

package reactor

import (
	"time"

	"golang.org/x/sys/windows"
)

// iocpBackend implements Backend via GetQueuedCompletionStatus, per
// spec §4.1: "IOCP: GetQueuedCompletionStatus with the timeout; if an event
// is dequeued, immediately re-post it so the reactor itself will consume
// it." fd is the reactor's completion-port handle.
type iocpBackend struct {
	port windows.Handle
}

func newIOCPBackend(fd uintptr) (Backend, error) {
	return &iocpBackend{port: windows.Handle(fd)}, nil
}

func (b *iocpBackend) Wait(timeout time.Duration) error {
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout.Milliseconds())
	}

	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped
	err := windows.GetQueuedCompletionStatus(b.port, &bytes, &key, &overlapped, ms)
	if err == windows.WAIT_TIMEOUT {
		return nil
	}
	if err != nil {
		return err
	}
	if overlapped != nil {
		// Re-post so the reactor's own completion handling sees it.
		_ = windows.PostQueuedCompletionStatus(b.port, bytes, key, overlapped)
	}
	return nil
}

func (b *iocpBackend) Close() error { return nil }

func newPlatformWait(fd uintptr) (Backend, error) {
	return newIOCPBackend(fd)
}
