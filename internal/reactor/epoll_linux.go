//go:build linux

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollBackend implements Backend via epoll_wait, per spec §4.1's
// "epoll-capable OS: register the reactor's backend fd for level-triggered
// read, then epoll_wait with the reactor timeout".
type epollBackend struct {
	epfd int
	fd   int
}

func newEpollBackend(fd uintptr) (Backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	return &epollBackend{epfd: epfd, fd: int(fd)}, nil
}

func (b *epollBackend) Wait(timeout time.Duration) error {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
	}
	events := make([]unix.EpollEvent, 1)
	for {
		_, err := unix.EpollWait(b.epfd, events, ms)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

func (b *epollBackend) Close() error {
	return unix.Close(b.epfd)
}

// newPlatformWait is the per-OS constructor New() wires through to newWait.
func newPlatformWait(fd uintptr) (Backend, error) {
	return newEpollBackend(fd)
}
