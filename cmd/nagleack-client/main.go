// nagleack-client is the sending half of the Nagle / delayed-ACK
// interaction probe. It runs one paced trial against a nagleack receiver
// and prints the trial record as JSON on the standard output, where the run
// controller collects it.
package main

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"flag"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/nagleack/data"
	"github.com/m-lab/nagleack/sender"
)

var (
	server       = flag.String("server", "127.0.0.1", "Host to connect to")
	port         = flag.Int("port", 5000, "Port to connect to")
	rate         = flag.Int("rate", 40, "Target transmission rate in bytes per second")
	duration     = flag.Duration("duration", 120*time.Second, "Wall-clock length of the trial")
	nagle        = flag.Bool("nagle", true, "Leave Nagle send coalescing active")
	delayedACK   = flag.Bool("delayed-ack", true, "Leave delayed-ACK behavior active")
	chunkBytes   = flag.Int("chunkbytes", 40, "Chunk size in bytes")
	payloadBytes = flag.Int("payloadbytes", 4096, "Source payload size in bytes")
)

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from env")

	cfg := data.Config{
		Nagle:       *nagle,
		DelayedACK:  *delayedACK,
		PayloadSize: *payloadBytes,
		ChunkSize:   *chunkBytes,
		Rate:        *rate,
		Duration:    *duration,
	}
	// The payload content does not matter for the measurement; random bytes
	// keep any transparent compression on the path honest.
	payload := make([]byte, cfg.PayloadSize)
	_, err := crand.Read(payload)
	rtx.Must(err, "Could not generate the source payload")

	addr := net.JoinHostPort(*server, strconv.Itoa(*port))
	conn, err := net.Dial("tcp", addr)
	rtx.Must(err, "Could not connect to %s", addr)

	record, err := sender.Run(context.Background(), conn, payload, cfg)
	if err != nil {
		log.WithError(err).Warn("Trial ended on a transport error")
	}
	rtx.Must(json.NewEncoder(os.Stdout).Encode(record), "Could not encode the trial record")
	if err != nil {
		os.Exit(1)
	}
}
