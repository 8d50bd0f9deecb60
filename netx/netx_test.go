package netx

import (
	"net"
	"testing"

	"github.com/m-lab/go/rtx"

	"github.com/m-lab/nagleack/data"
)

// pair returns both ends of a loopback TCP connection.
func pair(t *testing.T) (*net.TCPConn, *net.TCPConn, *net.TCPListener) {
	t.Helper()
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	rtx.Must(err, "Could not listen on loopback")
	clientc := make(chan *net.TCPConn, 1)
	go func() {
		conn, err := net.DialTCP("tcp", nil, ln.Addr().(*net.TCPAddr))
		rtx.Must(err, "Could not dial")
		clientc <- conn
	}()
	server, err := ln.AcceptTCP()
	rtx.Must(err, "Could not accept")
	return <-clientc, server, ln
}

func TestTuneAllConfigurations(t *testing.T) {
	for _, cfg := range []data.Config{
		{Nagle: true, DelayedACK: true},
		{Nagle: true, DelayedACK: false},
		{Nagle: false, DelayedACK: true},
		{Nagle: false, DelayedACK: false},
	} {
		client, server, ln := pair(t)
		if err := Tune(client, cfg); err != nil {
			t.Errorf("Tune(%+v) = %v, want nil", cfg, err)
		}
		client.Close()
		server.Close()
		ln.Close()
	}
}

func TestTuneIsIdempotent(t *testing.T) {
	client, server, ln := pair(t)
	defer client.Close()
	defer server.Close()
	defer ln.Close()
	cfg := data.Config{Nagle: false, DelayedACK: false}
	if err := Tune(client, cfg); err != nil {
		t.Fatalf("first Tune = %v, want nil", err)
	}
	if err := Tune(client, cfg); err != nil {
		t.Errorf("second Tune = %v, want nil", err)
	}
}

func TestTuneListenerAllConfigurations(t *testing.T) {
	for _, cfg := range []data.Config{
		{Nagle: true, DelayedACK: true},
		{Nagle: true, DelayedACK: false},
		{Nagle: false, DelayedACK: true},
		{Nagle: false, DelayedACK: false},
	} {
		ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
		rtx.Must(err, "Could not listen on loopback")
		if err := TuneListener(ln, cfg); err != nil {
			t.Errorf("TuneListener(%+v) = %v, want nil", cfg, err)
		}
		ln.Close()
	}
}

func TestUUIDIsNonEmptyAndDistinct(t *testing.T) {
	c1, s1, ln1 := pair(t)
	defer c1.Close()
	defer s1.Close()
	defer ln1.Close()
	c2, s2, ln2 := pair(t)
	defer c2.Close()
	defer s2.Close()
	defer ln2.Close()
	u1 := UUID(c1)
	u2 := UUID(c2)
	if u1 == "" || u2 == "" {
		t.Error("connection UUIDs should never be empty")
	}
	if u1 == u2 {
		t.Errorf("distinct connections share the UUID %q", u1)
	}
}
