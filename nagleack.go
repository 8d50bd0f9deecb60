// nagleack is the receiving half of the Nagle / delayed-ACK interaction
// probe. It serves exactly one measurement session per run and prints the
// session record as JSON on the standard output, where the run controller
// collects it. The run controller restarts the binary for each trial
// configuration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/nagleack/data"
	"github.com/m-lab/nagleack/logging"
	"github.com/m-lab/nagleack/receiver"
)

var (
	listenAddr = flag.String("listen", ":5000", "Address to listen on for the measurement session")
	nagle      = flag.Bool("nagle", true, "Leave Nagle send coalescing active")
	delayedACK = flag.Bool("delayed-ack", true, "Leave delayed-ACK behavior active")
	bufBytes   = flag.Int("bufbytes", receiver.DefaultBufSize, "Receive buffer size in bytes")
	timeout    = flag.Duration("timeout", 0, "Give up if no session completes within this time (0 means wait forever)")

	// Context for the whole program.
	ctx, cancel = context.WithCancel(context.Background())
)

func main() {
	defer cancel()
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from env")

	if *timeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, *timeout)
		defer tcancel()
	}

	promSrv := prometheusx.MustServeMetrics()
	defer promSrv.Close()

	cfg := data.Config{Nagle: *nagle, DelayedACK: *delayedACK}
	rcv := receiver.New(cfg, *bufBytes)
	rtx.Must(rcv.Listen(*listenAddr), "Could not listen on %s", *listenAddr)
	defer rcv.Close()
	logging.Logger.WithField("addr", rcv.Addr().String()).Info("receiver: listening")

	stats, err := rcv.Serve(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logging.Logger.Warn("receiver: shut down before a session completed")
			return
		}
		rtx.Must(err, "Could not serve the measurement session")
	}
	rtx.Must(json.NewEncoder(os.Stdout).Encode(stats), "Could not encode the session record")
}
