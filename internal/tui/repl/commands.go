// Package repl provides the interactive REPL with slash commands.
package repl

import (
	"errors"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
)

// Command represents a slash command
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Handler     CommandHandler
}

// CommandHandler runs a command. It returns text to show right away and,
// for work that must not block the UI, a tea.Cmd that reports back later.
type CommandHandler func(args []string) (string, tea.Cmd, error)

// CommandRegistry holds all registered commands
type CommandRegistry struct {
	commands map[string]*Command
	aliases  map[string]string
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd.Name
	}
}

// Get retrieves a command by name or alias
func (r *CommandRegistry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if canonical, ok := r.aliases[name]; ok {
		return r.commands[canonical]
	}
	return nil
}

// List returns all registered commands sorted by name
func (r *CommandRegistry) List() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})
	return cmds
}

// Names returns all command names (not aliases, for cleaner display)
func (r *CommandRegistry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultCommands describes the voucher commands. Handlers are attached by
// the REPL, which owns the state they act on.
func DefaultCommands() *CommandRegistry {
	registry := NewCommandRegistry()
	for _, c := range []*Command{
		{Name: "help", Aliases: []string{"h", "?"}, Description: "Show available commands", Usage: "/help [command]"},
		{Name: "quit", Aliases: []string{"q", "exit"}, Description: "Exit interactive mode", Usage: "/quit"},
		{Name: "connect", Aliases: []string{"c"}, Description: "Connect to the access point", Usage: "/connect [host] [user] [password]"},
		{Name: "disconnect", Description: "Close the device connection", Usage: "/disconnect"},
		{Name: "profiles", Aliases: []string{"p"}, Description: "List or create hotspot user profiles", Usage: "/profiles [add <name> [rate-limit] [keepalive]]"},
		{Name: "add", Aliases: []string{"a"}, Description: "Queue a batch of vouchers", Usage: "/add <prefix> <quantity> [profile] [duration]"},
		{Name: "queue", Aliases: []string{"ls"}, Description: "Show queued batches", Usage: "/queue"},
		{Name: "clear", Description: "Drop every queued batch", Usage: "/clear"},
		{Name: "process", Aliases: []string{"run"}, Description: "Generate every queued batch", Usage: "/process"},
		{Name: "generate", Aliases: []string{"g", "gen"}, Description: "Generate one batch now, outside the queue", Usage: "/generate <prefix> <quantity> [profile] [duration]"},
		{Name: "status", Aliases: []string{"st"}, Description: "Show connection, queue and last run", Usage: "/status"},
		{Name: "export", Aliases: []string{"x"}, Description: "Write the last run to .xlsx, .pdf or .csv", Usage: "/export [file]"},
		{Name: "pdf", Description: "Write the last run as PDF", Usage: "/pdf [file]"},
		{Name: "copy", Aliases: []string{"cp"}, Description: "Copy the last run to the clipboard", Usage: "/copy [print|users|table]"},
		{Name: "cancel", Description: "Stop the running generation", Usage: "/cancel"},
	} {
		registry.Register(c)
	}
	return registry
}

// ErrQuit is returned when the user wants to quit the REPL
var ErrQuit = errors.New("quit")
