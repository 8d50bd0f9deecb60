// Package netx extends the functionality of the net package. It contains
// the per-socket tuning that toggles Nagle send coalescing and delayed-ACK
// behavior for a trial, applied to a connection or listener handle before
// any data moves.
package netx

import (
	"net"

	"github.com/apex/log"
	guuid "github.com/google/uuid"
	"github.com/m-lab/uuid"

	"github.com/m-lab/nagleack/data"
)

// Tune applies cfg's Nagle and delayed-ACK settings to tc. It must run
// before the first byte of the trial is written. Applying it more than once
// has the same observable effect as applying it once.
//
// Go enables TCP_NODELAY on every new TCPConn, so leaving "the default
// coalescing behavior" active requires an explicit SetNoDelay(false).
func Tune(tc *net.TCPConn, cfg data.Config) error {
	if err := tc.SetNoDelay(!cfg.Nagle); err != nil {
		return err
	}
	if cfg.DelayedACK {
		return nil
	}
	file, err := tc.File()
	if err != nil {
		log.WithError(err).Warn("Cannot obtain a File from a TCPConn")
		return err
	}
	defer file.Close()
	// Note: casting to int is safe because a socket is int on Unix.
	enableQuickAck(int(file.Fd()))
	return nil
}

// TuneListener applies cfg's settings to a listening socket so that the
// accepted connection inherits them. Like Tune, it is idempotent and a
// missing quickack capability is a warning, never an error.
func TuneListener(ln *net.TCPListener, cfg data.Config) error {
	file, err := ln.File()
	if err != nil {
		log.WithError(err).Warn("Cannot obtain a File from a TCPListener")
		return err
	}
	defer file.Close()
	fd := int(file.Fd())
	if !cfg.Nagle {
		if err := setNoDelay(fd); err != nil {
			log.WithError(err).Warn("setsockopt(TCP_NODELAY) failed")
			return err
		}
	}
	if !cfg.DelayedACK {
		enableQuickAck(fd)
	}
	return nil
}

// UUID returns an identifier for the trial connection, derived from the
// underlying socket where the platform allows it and random otherwise.
func UUID(tc *net.TCPConn) string {
	id, err := uuid.FromTCPConn(tc)
	if err != nil {
		log.WithError(err).Warn("Cannot derive a UUID from the connection")
		return guuid.NewString()
	}
	return id
}
