// +build !linux

package netx

import (
	"github.com/apex/log"
)

// setNoDelay disables Nagle coalescing on the socket behind fd. On
// non-Linux platforms we do not manipulate listener sockets directly;
// accepted connections are tuned through Tune instead.
func setNoDelay(int) error {
	log.Warn("Listener TCP_NODELAY not available on this platform")
	return nil
}

// enableQuickAck requests immediate acknowledgment behavior. TCP_QUICKACK
// is Linux-only, so here it only warns; the trial continues with the
// default acknowledgment delay.
func enableQuickAck(int) {
	log.Warn("TCP_QUICKACK not available on this platform")
}
