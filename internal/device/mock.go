package device

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
)

var quotedNameRe = regexp.MustCompile(`name="((?:[^"\\]|\\.)*)"`)

// MockRouter is an in-memory RouterOS stand-in. It understands the commands
// this package builds and is used by tests and by --simulate runs.
type MockRouter struct {
	Identity string

	// Hook, when set, sees every command first. Returning handled=false
	// falls through to the built-in behavior.
	Hook func(command string) (stdout, stderr string, err error, handled bool)

	mu       sync.Mutex
	profiles []string
	users    map[string]string
	commands []string
	closed   bool
}

// NewMockRouter returns a router with the default profile and no users.
func NewMockRouter(identity string) *MockRouter {
	return &MockRouter{
		Identity: identity,
		profiles: []string{DefaultProfile},
		users:    make(map[string]string),
	}
}

// Run implements Session.
func (m *MockRouter) Run(ctx context.Context, command string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", "", apperrors.NewConnectionError("session closed", nil)
	}
	m.commands = append(m.commands, command)

	if m.Hook != nil {
		if stdout, stderr, err, handled := m.Hook(command); handled {
			return stdout, stderr, err
		}
	}

	switch {
	case command == IdentityCommand:
		return "  name: " + m.Identity + "\n", "", nil
	case command == ProfilesCommand:
		var b strings.Builder
		for i, p := range m.profiles {
			fmt.Fprintf(&b, " %d   name=%q\n", i, p)
		}
		return b.String(), "", nil
	case strings.HasPrefix(command, "/ip hotspot user profile add "):
		name := commandName(command)
		for _, p := range m.profiles {
			if p == name {
				return "", "failure: item already exists", nil
			}
		}
		m.profiles = append(m.profiles, name)
		return "", "", nil
	case strings.HasPrefix(command, "/ip hotspot user add "):
		name := commandName(command)
		if _, ok := m.users[name]; ok {
			return "", "failure: already have user with this name", nil
		}
		m.users[name] = command
		return "", "", nil
	default:
		return "", "bad command name", nil
	}
}

// Close implements Session. A closed router rejects commands until redialed.
func (m *MockRouter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Dial implements Dialer by reopening the router.
func (m *MockRouter) Dial(ctx context.Context, _ Target) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewConnectionError("dial", err)
	}
	m.mu.Lock()
	m.closed = false
	m.mu.Unlock()
	return m, nil
}

// AddUser pre-creates a hotspot user.
func (m *MockRouter) AddUser(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[name] = ""
}

// HasUser reports whether name exists on the router.
func (m *MockRouter) HasUser(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[name]
	return ok
}

// UserCount returns the number of hotspot users.
func (m *MockRouter) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// Commands returns every command received, in order.
func (m *MockRouter) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.commands))
	copy(out, m.commands)
	return out
}

func commandName(command string) string {
	m := quotedNameRe.FindStringSubmatch(command)
	if m == nil {
		return ""
	}
	return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(m[1])
}
