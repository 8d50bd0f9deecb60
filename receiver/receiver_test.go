package receiver_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/m-lab/go/rtx"

	"github.com/m-lab/nagleack/data"
	"github.com/m-lab/nagleack/receiver"
)

func serve(t *testing.T, rcv *receiver.Receiver) <-chan *data.ReceiverStats {
	t.Helper()
	statsc := make(chan *data.ReceiverStats, 1)
	go func() {
		stats, err := rcv.Serve(context.Background())
		rtx.Must(err, "Could not serve the test session")
		statsc <- stats
	}()
	return statsc
}

func TestServeCountsAndAcknowledges(t *testing.T) {
	rcv := receiver.New(data.DefaultConfig(), 4096)
	rtx.Must(rcv.Listen("127.0.0.1:0"), "Could not listen on loopback")
	statsc := serve(t, rcv)

	conn, err := net.Dial("tcp", rcv.Addr().String())
	rtx.Must(err, "Could not dial the receiver")
	chunk := make([]byte, 40)
	ack := make([]byte, 3)
	for i := 0; i < 3; i++ {
		_, err := conn.Write(chunk)
		rtx.Must(err, "Could not write a chunk")
		// Reading the acknowledgment before the next write keeps the
		// request/acknowledge cadence intact, like the real sender.
		_, err = io.ReadFull(conn, ack)
		rtx.Must(err, "Could not read the acknowledgment")
		if string(ack) != "ACK" {
			t.Fatalf("acknowledgment token = %q, want %q", ack, "ACK")
		}
	}
	conn.Close()

	stats := <-statsc
	if stats.ChunksReceived != 3 {
		t.Errorf("ChunksReceived = %d, want 3", stats.ChunksReceived)
	}
	if stats.BytesReceived != 120 {
		t.Errorf("BytesReceived = %d, want 120", stats.BytesReceived)
	}
	if stats.MaxChunkSize != 40 {
		t.Errorf("MaxChunkSize = %d, want 40", stats.MaxChunkSize)
	}
	if stats.Error != "" {
		t.Errorf("an orderly close is not an error, got %q", stats.Error)
	}
	if stats.UUID == "" {
		t.Error("the session record should carry a UUID")
	}
	if stats.ElapsedSec <= 0 || stats.DataRate <= 0 {
		t.Errorf("ElapsedSec = %f, DataRate = %f, want both > 0", stats.ElapsedSec, stats.DataRate)
	}
}

func TestServeSurvivesMidSessionReset(t *testing.T) {
	rcv := receiver.New(data.DefaultConfig(), 4096)
	rtx.Must(rcv.Listen("127.0.0.1:0"), "Could not listen on loopback")
	statsc := serve(t, rcv)

	conn, err := net.Dial("tcp", rcv.Addr().String())
	rtx.Must(err, "Could not dial the receiver")
	_, err = conn.Write(make([]byte, 40))
	rtx.Must(err, "Could not write a chunk")
	ack := make([]byte, 3)
	_, err = io.ReadFull(conn, ack)
	rtx.Must(err, "Could not read the acknowledgment")
	// An abortive close makes the receiver's next read fail with a reset
	// rather than EOF.
	conn.(*net.TCPConn).SetLinger(0)
	conn.Close()

	stats := <-statsc
	if stats.ChunksReceived != 1 || stats.BytesReceived != 40 {
		t.Errorf("stats = %d chunks / %d bytes, want 1 / 40",
			stats.ChunksReceived, stats.BytesReceived)
	}
	// A reset mid-session still flows through the normal closing path; the
	// error is recorded rather than propagated.
	if stats.EndTime.IsZero() {
		t.Error("the session record was not finalized")
	}
}

func TestServeAcceptDeadline(t *testing.T) {
	rcv := receiver.New(data.DefaultConfig(), 0)
	rtx.Must(rcv.Listen("127.0.0.1:0"), "Could not listen on loopback")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := rcv.Serve(ctx)
	if err == nil {
		t.Error("an accept that never sees a client must report an error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	rcv := receiver.New(data.DefaultConfig(), 4096)
	rtx.Must(rcv.Listen("127.0.0.1:0"), "Could not listen on loopback")
	rcv.Close()
	rcv.Close()
}
