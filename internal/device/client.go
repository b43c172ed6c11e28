// Package device talks to a RouterOS access point: it dials SSH sessions,
// builds the hotspot commands and parses their output.
package device

import (
	"context"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds dialing when Target.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Target identifies the access point and the credentials used to reach it.
type Target struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration

	// KnownHostsPath, when set, pins host keys in an OpenSSH known_hosts file.
	// New hosts are appended on first contact.
	KnownHostsPath string
}

// Addr returns host:port, defaulting the port to 22.
func (t Target) Addr() string {
	port := t.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

func (t Target) timeout() time.Duration {
	if t.Timeout <= 0 {
		return DefaultTimeout
	}
	return t.Timeout
}

// Session runs one command at a time on a connected device.
type Session interface {
	// Run executes command and returns its stdout and stderr. A non-nil error
	// means the transport failed; a command that ran but complained reports
	// that on stderr.
	Run(ctx context.Context, command string) (stdout, stderr string, err error)
	Close() error
}

// Dialer opens sessions to a Target.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Session, error)
}
