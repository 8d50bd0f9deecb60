// Package receiver implements the consuming half of the nagleack
// measurement protocol: a single-serving server that accepts exactly one
// connection, counts every read as one received unit, and writes a fixed
// 3-byte acknowledgment before reading again. The strict read/acknowledge
// cadence means the receiver never reads ahead of the sender's pacing, so
// each acknowledgment answers the chunk that was just consumed and no
// sequence numbers are needed.
package receiver

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/m-lab/go/warnonerror"

	"github.com/m-lab/nagleack/data"
	"github.com/m-lab/nagleack/logging"
	"github.com/m-lab/nagleack/metrics"
	"github.com/m-lab/nagleack/netx"
	"github.com/m-lab/nagleack/version"
)

// DefaultBufSize is the receive buffer size used when none is configured.
const DefaultBufSize = 4096

// ackToken is written back after every non-empty read.
var ackToken = []byte("ACK")

// Receiver is a single-serving measurement server. It serves exactly one
// connection and is not reused across trials; the run controller restarts
// it for each configuration.
type Receiver struct {
	cfg      data.Config
	bufSize  int
	listener *net.TCPListener
	once     sync.Once
}

// New creates a Receiver for one trial with the given socket tuning and
// receive buffer size. A non-positive bufSize selects DefaultBufSize.
func New(cfg data.Config, bufSize int) *Receiver {
	if bufSize <= 0 {
		bufSize = DefaultBufSize
	}
	return &Receiver{cfg: cfg, bufSize: bufSize}
}

// Listen binds addr and applies the trial's socket tuning to the listening
// socket, before accept, so the accepted connection starts configured. When
// Listen returns without error it is safe for the sender to connect.
func (r *Receiver) Listen(addr string) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return err
	}
	if err := netx.TuneListener(ln, r.cfg); err != nil {
		warnonerror.Close(ln, "Could not close the listener")
		return err
	}
	r.listener = ln
	return nil
}

// Addr returns the bound address. It is only valid after Listen.
func (r *Receiver) Addr() net.Addr {
	return r.listener.Addr()
}

// Close shuts down the listening socket. It is safe to call more than once
// and safe to call concurrently with Serve, which it unblocks.
func (r *Receiver) Close() {
	r.once.Do(func() {
		warnonerror.Close(r.listener, "Could not close the listener")
	})
}

// Serve accepts one connection and consumes it until the stream closes,
// acknowledging every non-empty read. An orderly close by the sender is the
// terminal state, not an error; a mid-session transport failure is logged,
// stored in the record, and still flows through the same closing path. The
// accepted connection and the listening socket are both closed before Serve
// returns, on every exit path.
//
// The returned error is non-nil only when no session happened at all, i.e.
// the accept itself failed.
func (r *Receiver) Serve(ctx context.Context) (*data.ReceiverStats, error) {
	defer r.Close()
	stats := &data.ReceiverStats{Version: version.Version}
	if deadline, ok := ctx.Deadline(); ok {
		r.listener.SetDeadline(deadline)
	}
	conn, err := r.listener.AcceptTCP()
	if err != nil {
		metrics.ReceiverSessions.WithLabelValues("accept-error").Inc()
		return stats, err
	}
	defer warnonerror.Close(conn, "Could not close the session connection")

	stats.UUID = netx.UUID(conn)
	logging.Logger.WithFields(log.Fields{
		"client":     conn.RemoteAddr().String(),
		"uuid":       stats.UUID,
		"nagle":      r.cfg.Nagle,
		"delayedACK": r.cfg.DelayedACK,
	}).Info("receiver: session start")

	metrics.ActiveTrials.WithLabelValues("receiver").Inc()
	defer metrics.ActiveTrials.WithLabelValues("receiver").Dec()

	buf := make([]byte, r.bufSize)
	result := "okay"
	stats.StartTime = time.Now()
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			stats.ChunksReceived++
			stats.BytesReceived += int64(n)
			if int64(n) > stats.MaxChunkSize {
				stats.MaxChunkSize = int64(n)
			}
			metrics.ReceiverChunks.Inc()
			metrics.ReceiverBytes.Add(float64(n))
			// The acknowledgment must complete before the next read so
			// that the sender's per-chunk wait resolves chunk by chunk.
			if _, werr := conn.Write(ackToken); werr != nil {
				logging.Logger.WithError(werr).Warn("receiver: acknowledgment write failed")
				stats.Error = werr.Error()
				result = "write-error"
				break
			}
		}
		if err == io.EOF {
			// Orderly stream closure ends the session.
			break
		}
		if err != nil {
			logging.Logger.WithError(err).Warn("receiver: read failed")
			stats.Error = err.Error()
			result = "read-error"
			break
		}
	}
	stats.EndTime = time.Now()
	stats.Finalize()
	metrics.ReceiverSessions.WithLabelValues(result).Inc()

	logging.Logger.WithFields(log.Fields{
		"uuid":      stats.UUID,
		"bytes":     stats.BytesReceived,
		"packets":   stats.ChunksReceived,
		"max_chunk": stats.MaxChunkSize,
		"rate":      stats.DataRate,
		"time":      stats.ElapsedSec,
	}).Info("receiver: session end")
	return stats, nil
}
