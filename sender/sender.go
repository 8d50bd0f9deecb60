// Package sender implements the transmitting half of the nagleack
// measurement protocol: it paces fixed-size chunks from a circular source
// buffer over one persistent connection at a target byte rate, waits a
// bounded time for the receiver's per-chunk acknowledgment, and accounts
// every chunk exactly once as either acknowledged or lost.
package sender

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/apex/log"
	"github.com/m-lab/go/warnonerror"

	"github.com/m-lab/nagleack/data"
	"github.com/m-lab/nagleack/logging"
	"github.com/m-lab/nagleack/metrics"
	"github.com/m-lab/nagleack/netx"
	"github.com/m-lab/nagleack/tcpinfox"
	"github.com/m-lab/nagleack/version"
)

// AckTimeout bounds the wait for each per-chunk acknowledgment. Expiry is a
// counted loss, never a trial failure.
const AckTimeout = 1 * time.Second

// ackLen is the length of the receiver's acknowledgment token.
const ackLen = 3

// ErrEmptyPayload is returned when Run is invoked without source data.
var ErrEmptyPayload = errors.New("sender: empty source payload")

// Run executes one trial over conn: it tunes the socket per cfg, paces
// chunks of cfg.ChunkSize from payload for cfg.Duration of wall-clock time,
// and waits after each chunk for a 3-byte acknowledgment. The connection is
// closed before Run returns, on every exit path.
//
// The returned record is always non-nil and finalized from the accumulated
// counters and the measured elapsed time; the error is non-nil only for the
// fatal conditions (tuning failure, partial or failed write, non-timeout
// acknowledgment read failure). An acknowledgment timeout is absorbed into
// the record's ChunksLost counter and never aborts the trial.
func Run(ctx context.Context, conn net.Conn, payload []byte, cfg data.Config) (*data.TrialResult, error) {
	record := &data.TrialResult{Version: version.Version}
	if len(payload) == 0 {
		record.Error = ErrEmptyPayload.Error()
		warnonerror.Close(conn, "Could not close the trial connection")
		return record, ErrEmptyPayload
	}
	tc, _ := conn.(*net.TCPConn)
	if tc != nil {
		if err := netx.Tune(tc, cfg); err != nil {
			record.Error = err.Error()
			warnonerror.Close(conn, "Could not close the trial connection")
			return record, err
		}
		record.UUID = netx.UUID(tc)
	}
	logging.Logger.WithFields(log.Fields{
		"server":     conn.RemoteAddr().String(),
		"nagle":      cfg.Nagle,
		"delayedACK": cfg.DelayedACK,
		"rate":       cfg.Rate,
		"duration":   cfg.Duration.String(),
	}).Info("sender: trial start")

	metrics.ActiveTrials.WithLabelValues("sender").Inc()
	defer metrics.ActiveTrials.WithLabelValues("sender").Dec()

	// The pacing sleep holds the target byte rate and is unconditional:
	// it happens whether or not the chunk was acknowledged.
	pacing := time.Duration(float64(cfg.ChunkSize) / float64(cfg.Rate) * float64(time.Second))
	cur := &cursor{payload: payload}
	ack := make([]byte, ackLen)

	var fatal error
	record.StartTime = time.Now()
	deadline := record.StartTime.Add(cfg.Duration)
	// The duration is a soft bound checked once per iteration; the last
	// iteration may overrun slightly.
	for time.Now().Before(deadline) && ctx.Err() == nil {
		chunk := cur.next(cfg.ChunkSize)
		n, err := conn.Write(chunk)
		if err == nil && n != len(chunk) {
			err = io.ErrShortWrite
		}
		if err != nil {
			logging.Logger.WithError(err).Warn("sender: chunk write failed")
			fatal = err
			break
		}
		record.ChunksSent++
		record.BytesSent += int64(n)
		metrics.SenderChunks.Inc()
		metrics.SenderBytes.Add(float64(n))

		conn.SetReadDeadline(time.Now().Add(AckTimeout))
		if _, err := io.ReadFull(conn, ack); err != nil {
			// Every sent chunk must be accounted exactly once, so a chunk
			// whose wait was cut short by a transport failure still counts
			// as lost.
			record.ChunksLost++
			if !isTimeout(err) {
				metrics.SenderAcks.WithLabelValues("error").Inc()
				logging.Logger.WithError(err).Warn("sender: acknowledgment read failed")
				fatal = err
				break
			}
			metrics.SenderAcks.WithLabelValues("timeout").Inc()
		} else {
			record.AcksReceived++
			metrics.SenderAcks.WithLabelValues("received").Inc()
		}

		time.Sleep(pacing)
	}
	record.EndTime = time.Now()
	record.Finalize(cfg.ChunkSize)
	if fatal != nil {
		record.Error = fatal.Error()
	}
	if tc != nil && fatal == nil {
		if info, err := tcpinfox.FromTCPConn(tc); err == nil {
			record.TCPInfo = info
		}
	}
	warnonerror.Close(conn, "Could not close the trial connection")

	logging.Logger.WithFields(log.Fields{
		"uuid":       record.UUID,
		"bytes":      record.BytesSent,
		"packets":    record.ChunksSent,
		"acks":       record.AcksReceived,
		"lost":       record.ChunksLost,
		"throughput": record.Throughput,
		"goodput":    record.Goodput,
		"loss":       record.Loss,
		"time":       record.ElapsedSec,
	}).Info("sender: trial complete")
	return record, fatal
}

// isTimeout reports whether err is a network timeout, i.e. an expired
// per-chunk acknowledgment deadline.
func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
