package netx

import (
	"syscall"

	"github.com/apex/log"
)

// setNoDelay disables Nagle coalescing on the socket behind fd. It is used
// for listening sockets, where the net package offers no SetNoDelay.
func setNoDelay(fd int) error {
	return syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1)
}

// enableQuickAck requests immediate acknowledgment behavior from the local
// stack. Failure is logged and ignored: the trial continues with the
// default acknowledgment delay.
func enableQuickAck(fd int) {
	err := syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, syscall.TCP_QUICKACK, 1)
	if err != nil {
		log.WithError(err).Warn("setsockopt(TCP_QUICKACK) failed")
		return
	}
	log.Info("TCP quickack has been successfully enabled")
}
