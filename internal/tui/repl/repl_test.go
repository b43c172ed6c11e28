package repl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chpines/hotspot-tickets/internal/app"
	"github.com/chpines/hotspot-tickets/internal/credential"
	"github.com/chpines/hotspot-tickets/internal/device"
	"github.com/chpines/hotspot-tickets/internal/queue"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/ticket"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

func newModel(t *testing.T) (Model, *device.MockRouter, *string) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := ticket.NewEngine(ticket.WithLogger(log), ticket.WithGenerator(credential.NewGenerator(11)))
	svc := service.New(queue.New(), engine, worker.NewRunner(worker.RunnerConfig{Logger: log}), log)

	router := device.NewMockRouter("hAP")
	var clipboard string
	a := app.New(svc, app.Options{
		Dialer:    router,
		Clipboard: func(text string) error { clipboard = text; return nil },
		Log:       log,
	})
	t.Cleanup(func() { a.Close() })

	m := New(context.Background(), Config{
		Version:  "test",
		App:      a,
		Target:   device.Target{Host: "192.168.88.1", Username: "admin"},
		Defaults: Defaults{Prefix: "H", Quantity: 10, Profile: "default", Duration: "1h"},
	})
	return m, router, &clipboard
}

// run submits a command line and follows returned commands until the
// model settles, like the tea runtime would.
func run(t *testing.T, m Model, line string) Model {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		if _, ok := msg.(tea.BatchMsg); ok {
			break
		}
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestRegistryAliases(t *testing.T) {
	r := DefaultCommands()
	assert.Equal(t, "generate", r.Get("g").Name)
	assert.Equal(t, "quit", r.Get("exit").Name)
	assert.Nil(t, r.Get("nope"))
	assert.Contains(t, r.Names(), "process")
	assert.NotContains(t, r.Names(), "run", "aliases are not listed as names")
}

func TestCompleter(t *testing.T) {
	c := NewCompleter(DefaultCommands())
	c.SetProfiles([]string{"default", "1h-2M"})

	assert.Equal(t, []string{"/"}, c.Complete(""))
	assert.Nil(t, c.Complete("hello"))
	assert.Equal(t, []string{"/cancel", "/clear", "/connect", "/copy"}, c.Complete("/c"))
	assert.Equal(t, []string{"print", "table", "users"}, c.Complete("/copy "))
	assert.Equal(t, []string{"users"}, c.Complete("/copy u"))
	assert.Equal(t, []string{"1h-2M"}, c.Complete("/add H 100 1"))
	assert.Equal(t, []string{"15d", "1d", "1h"}, c.Complete("/add H 100 default 1"))
	assert.Nil(t, c.Complete("/unknown x"))
}

func TestFindLongestCommonPrefix(t *testing.T) {
	assert.Equal(t, "/c", FindLongestCommonPrefix([]string{"/clear", "/connect", "/copy"}))
	assert.Equal(t, "/co", FindLongestCommonPrefix([]string{"/connect", "/copy"}))
	assert.Equal(t, "", FindLongestCommonPrefix(nil))
	assert.Equal(t, "/pdf", FindLongestCommonPrefix([]string{"/pdf"}))
}

func TestApplyCompletion(t *testing.T) {
	assert.Equal(t, "/connect ", applyCompletion("/con", "/connect"))
	assert.Equal(t, "/copy users ", applyCompletion("/copy us", "users"))
	assert.Equal(t, "/copy print ", applyCompletion("/copy ", "print"))
}

func TestUnknownAndBareInput(t *testing.T) {
	m, _, _ := newModel(t)

	m = run(t, m, "hello")
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "commands start with /")

	m = run(t, m, "/frobnicate")
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "unknown")
}

func TestQueueCommands(t *testing.T) {
	m, _, _ := newModel(t)

	m = run(t, m, "/add H 100")
	require.NoError(t, m.err)
	assert.Contains(t, m.output, "100 tickets pending")

	m = run(t, m, "/add D 5 default 1d")
	require.NoError(t, m.err)
	assert.Contains(t, m.output, "105 tickets pending")

	m = run(t, m, "/add X many")
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "quantity must be a number")

	m = run(t, m, "/add X 0")
	require.Error(t, m.err)

	m = run(t, m, "/queue")
	assert.Contains(t, m.output, "2 batches, 105 tickets")

	m = run(t, m, "/clear")
	assert.Contains(t, m.output, "Cleared 2 batches")
	m = run(t, m, "/queue")
	assert.Equal(t, "Queue is empty.", m.output)
}

func TestConnectProcessAndCopy(t *testing.T) {
	m, router, clipboard := newModel(t)

	m = run(t, m, "/connect")
	require.NoError(t, m.err)
	assert.Contains(t, m.output, "Connected to hAP (192.168.88.1)")
	assert.Contains(t, m.View(), "hAP")

	m = run(t, m, "/add H 4")
	m = run(t, m, "/process")
	require.NoError(t, m.err)
	assert.Nil(t, m.task, "task is cleared once its events are drained")
	assert.Contains(t, m.output, "4 tickets: 4 created")
	assert.Equal(t, 4, router.UserCount())

	m = run(t, m, "/copy users")
	require.NoError(t, m.err)
	assert.Len(t, strings.Split(*clipboard, "\n"), 4)

	m = run(t, m, "/status")
	assert.Contains(t, m.output, "Last run")
	assert.Contains(t, m.output, "4 created")

	m = run(t, m, "/disconnect")
	assert.Contains(t, m.output, "Disconnected from hAP")
}

func TestGenerateWithDefaults(t *testing.T) {
	m, router, _ := newModel(t)

	m = run(t, m, "/generate")
	require.NoError(t, m.err)
	assert.Contains(t, m.output, "10 tickets: 0 created, 10 local only")
	assert.Zero(t, router.UserCount())
}

func TestProcessEmptyQueue(t *testing.T) {
	m, _, _ := newModel(t)
	m = run(t, m, "/process")
	assert.ErrorIs(t, m.err, service.ErrEmptyQueue)
}

func TestProfilesAddRequiresConnection(t *testing.T) {
	m, _, _ := newModel(t)

	m = run(t, m, "/profiles")
	require.NoError(t, m.err)
	assert.Contains(t, m.output, "offline")

	m = run(t, m, "/profiles add 1h-2M 2M/2M")
	assert.ErrorIs(t, m.err, app.ErrNotConnected)
}

func TestCancelIdle(t *testing.T) {
	m, _, _ := newModel(t)
	m = run(t, m, "/cancel")
	assert.Equal(t, "Nothing is running.", m.output)
}

func TestHelpAndQuit(t *testing.T) {
	m, _, _ := newModel(t)

	m = run(t, m, "/help")
	assert.Contains(t, m.output, "/process")

	m = run(t, m, "/help /add")
	assert.Contains(t, m.output, "Usage: /add <prefix> <quantity>")

	m.input.SetValue("/quit")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, next.(Model).quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHistoryNavigation(t *testing.T) {
	m, _, _ := newModel(t)
	m = run(t, m, "/queue")
	m = run(t, m, "/status")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Equal(t, "/status", m.input.Value())
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Equal(t, "/queue", m.input.Value())
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, "/status", m.input.Value())
}
