// Package tcpinfox helps to gather TCP_INFO statistics.
package tcpinfox

import (
	"errors"
	"net"
	"os"

	"github.com/m-lab/tcp-info/tcp"
)

// ErrNoSupport is returned on systems that do not support TCP_INFO.
var ErrNoSupport = errors.New("TCP_INFO not supported")

// GetTCPInfo measures TCP_INFO metrics using |fp| and returns them. In
// case of error, instead, an error is returned.
func GetTCPInfo(fp *os.File) (*tcp.LinuxTCPInfo, error) {
	return getTCPInfo(fp)
}

// FromTCPConn measures TCP_INFO metrics on tc's socket. The connection must
// still be open when it is called.
func FromTCPConn(tc *net.TCPConn) (*tcp.LinuxTCPInfo, error) {
	fp, err := tc.File()
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return getTCPInfo(fp)
}
