// Package data defines the per-trial configuration and the archival records
// produced by the nagleack sender and receiver. The lowercase JSON keys are
// the surface consumed by the external run controller and must not change
// without updating the controller's parser.
package data

import (
	"time"

	"github.com/m-lab/tcp-info/tcp"
)

// Config holds the immutable settings of one trial. It is read once at
// trial start and never mutated.
type Config struct {
	// Nagle reports whether send-side coalescing is left active. When
	// false, TCP_NODELAY is set on the socket.
	Nagle bool
	// DelayedACK reports whether the receive-side acknowledgment delay is
	// left active. When false, quick acknowledgment is requested from the
	// local stack where the platform supports it.
	DelayedACK bool
	// PayloadSize is the size in bytes of the circular source buffer.
	PayloadSize int
	// ChunkSize is the size in bytes of each paced application chunk.
	ChunkSize int
	// Rate is the target transmission rate in bytes per second.
	Rate int
	// Duration is the wall-clock length of the trial.
	Duration time.Duration
}

// DefaultConfig returns the trial settings used by the standard experiment
// sweep: a 4096-byte payload paced at 40 B/s in 40-byte chunks for two
// minutes, with both Nagle and delayed ACK left active.
func DefaultConfig() Config {
	return Config{
		Nagle:       true,
		DelayedACK:  true,
		PayloadSize: 4096,
		ChunkSize:   40,
		Rate:        40,
		Duration:    120 * time.Second,
	}
}

// TrialResult is the archival record of one sender-side trial. It is
// finalized exactly once, at send-loop exit, whether the loop ended on the
// wall clock, on a fatal transport error, or on cancellation.
type TrialResult struct {
	// Version is the symbolic version of the running code.
	Version string `json:"version"`
	// UUID identifies the trial connection.
	UUID string `json:"uuid"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// BytesSent counts payload bytes fully written to the connection.
	BytesSent int64 `json:"bytes"`
	// ChunksSent counts fully written chunks.
	ChunksSent int64 `json:"packets"`
	// AcksReceived counts chunks whose 3-byte acknowledgment arrived
	// within the per-chunk deadline.
	AcksReceived int64 `json:"acks"`
	// ChunksLost counts chunks whose acknowledgment wait timed out or was
	// cut short by a transport failure. ChunksSent == AcksReceived +
	// ChunksLost always holds once the record is finalized.
	ChunksLost int64 `json:"lost"`

	// ElapsedSec is the measured wall-clock length of the send loop, not
	// the configured duration, so the record reflects real loop overhead.
	ElapsedSec float64 `json:"time"`
	// Throughput is BytesSent/ElapsedSec in bytes per second.
	Throughput float64 `json:"throughput"`
	// Goodput counts only acknowledged chunks: AcksReceived*ChunkSize/ElapsedSec.
	Goodput float64 `json:"goodput"`
	// Loss is ChunksLost/ChunksSent, in [0, 1], and 0 when nothing was sent.
	Loss float64 `json:"loss"`

	// TCPInfo is a best-effort snapshot of the kernel's view of the
	// connection at trial end. Nil where TCP_INFO is unsupported.
	TCPInfo *tcp.LinuxTCPInfo `json:"tcp_info,omitempty"`

	Error string `json:"error,omitempty"`
}

// Finalize computes the derived rates from the accumulated counters and the
// measured StartTime/EndTime interval.
func (r *TrialResult) Finalize(chunkSize int) {
	r.ElapsedSec = r.EndTime.Sub(r.StartTime).Seconds()
	if r.ElapsedSec > 0 {
		r.Throughput = float64(r.BytesSent) / r.ElapsedSec
		r.Goodput = float64(r.AcksReceived) * float64(chunkSize) / r.ElapsedSec
	}
	if r.ChunksSent > 0 {
		r.Loss = float64(r.ChunksLost) / float64(r.ChunksSent)
	}
}

// ReceiverStats is the archival record of one receiver session. It is
// finalized when the stream closes.
type ReceiverStats struct {
	// Version is the symbolic version of the running code.
	Version string `json:"version"`
	// UUID identifies the accepted connection.
	UUID string `json:"uuid"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// BytesReceived counts all payload bytes read from the connection.
	BytesReceived int64 `json:"bytes"`
	// ChunksReceived counts non-empty reads. The transport may split or
	// coalesce the sender's chunks, so this is a count of reads, not of
	// sender-side chunk boundaries.
	ChunksReceived int64 `json:"packets"`
	// MaxChunkSize is the largest single read observed, in bytes.
	MaxChunkSize int64 `json:"max_chunk"`

	// ElapsedSec is the measured wall-clock length of the session.
	ElapsedSec float64 `json:"time"`
	// DataRate is BytesReceived/ElapsedSec, and 0 when ElapsedSec is 0.
	DataRate float64 `json:"rate"`

	Error string `json:"error,omitempty"`
}

// Finalize computes the derived rate from the accumulated counters and the
// measured StartTime/EndTime interval.
func (s *ReceiverStats) Finalize() {
	s.ElapsedSec = s.EndTime.Sub(s.StartTime).Seconds()
	if s.ElapsedSec > 0 {
		s.DataRate = float64(s.BytesReceived) / s.ElapsedSec
	}
}
