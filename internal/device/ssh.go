package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
)

// SSHDialer opens password-authenticated SSH connections.
type SSHDialer struct{}

// NewSSHDialer returns the default SSH dialer.
func NewSSHDialer() *SSHDialer {
	return &SSHDialer{}
}

// Dial connects and authenticates. Every failure is a connection error.
func (d *SSHDialer) Dial(ctx context.Context, target Target) (Session, error) {
	if target.Host == "" {
		return nil, apperrors.NewValidationError("host is required")
	}

	hostKeys, err := hostKeyCallback(target.KnownHostsPath)
	if err != nil {
		return nil, apperrors.NewConnectionError("load known hosts", err)
	}

	config := &ssh.ClientConfig{
		User: target.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(target.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = target.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeys,
		Timeout:         target.timeout(),
	}

	addr := target.Addr()
	dialCtx, cancel := context.WithTimeout(ctx, target.timeout())
	defer cancel()

	var nd net.Dialer
	conn, err := nd.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, apperrors.NewConnectionError("connect to "+addr, err)
	}

	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, apperrors.NewConnectionError("ssh handshake with "+addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &sshSession{client: ssh.NewClient(c, chans, reqs)}, nil
}

type sshSession struct {
	mu     sync.Mutex
	client *ssh.Client
}

// Run opens a fresh SSH session per command, the way RouterOS expects exec requests.
func (s *sshSession) Run(ctx context.Context, command string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return "", "", apperrors.NewConnectionError("session closed", nil)
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return "", "", apperrors.NewConnectionError("open ssh session", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case <-ctx.Done():
		_ = sess.Close()
		<-done
		return stdout.String(), stderr.String(), ctx.Err()
	case err := <-done:
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			msg := stderr.String()
			if msg == "" {
				msg = exitErr.Error()
			}
			return stdout.String(), msg, nil
		}
		if err != nil {
			return stdout.String(), stderr.String(), apperrors.NewConnectionError("run command", err)
		}
		return stdout.String(), stderr.String(), nil
	}
}

func (s *sshSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// hostKeyCallback accepts unknown hosts. With a known_hosts path it pins keys:
// unknown hosts are appended, changed keys are rejected.
func hostKeyCallback(path string) (ssh.HostKeyCallback, error) {
	if path == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return nil, err
	}
	f.Close()

	known, err := knownhosts.New(path)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := known(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) || len(keyErr.Want) > 0 {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		f, ferr := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
		if ferr != nil {
			return fmt.Errorf("record host key: %w", ferr)
		}
		defer f.Close()
		line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
		if _, ferr := fmt.Fprintln(f, line); ferr != nil {
			return fmt.Errorf("record host key: %w", ferr)
		}
		return nil
	}, nil
}
