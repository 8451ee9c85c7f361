//go:build darwin || freebsd || netbsd || openbsd

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// selectBackend implements Backend via select(2), per spec §4.1's
// "kqueue/BSD: select on the backend fd with a converted timeval; retry on
// interrupt". A true kqueue-based poller would be the idiomatic choice on
// these platforms, but the spec explicitly calls out select as the observed
// behavior to preserve, so that is what this backend does.
type selectBackend struct {
	fd int
}

func newSelectBackend(fd uintptr) (Backend, error) {
	return &selectBackend{fd: int(fd)}, nil
}

func (b *selectBackend) Wait(timeout time.Duration) error {
	var fds unix.FdSet
	fds.Set(b.fd)

	var tv *unix.Timeval
	if timeout >= 0 {
		t := unix.NsecToTimeval(timeout.Nanoseconds())
		tv = &t
	}

	for {
		_, err := unix.Select(b.fd+1, &fds, nil, nil, tv)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

func (b *selectBackend) Close() error { return nil }

func newPlatformWait(fd uintptr) (Backend, error) {
	return newSelectBackend(fd)
}
