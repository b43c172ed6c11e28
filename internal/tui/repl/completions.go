package repl

import (
	"sort"
	"strings"
)

var (
	copyFormats     = []string{"print", "table", "users"}
	durationPresets = []string{"01:00:00", "1d", "1h", "15d", "30d", "7d"}
)

// Completer provides tab completion for the REPL
type Completer struct {
	registry *CommandRegistry
	profiles []string
}

// NewCompleter creates a new completer
func NewCompleter(registry *CommandRegistry) *Completer {
	return &Completer{registry: registry, profiles: []string{"default"}}
}

// SetProfiles updates the profile names offered for /add and /generate.
func (c *Completer) SetProfiles(profiles []string) {
	if len(profiles) == 0 {
		return
	}
	c.profiles = append([]string(nil), profiles...)
}

// Complete returns completion suggestions for the given input
func (c *Completer) Complete(input string) []string {
	trimmed := strings.TrimLeft(input, " ")
	if strings.TrimSpace(trimmed) == "" {
		return []string{"/"}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return nil
	}

	body := strings.TrimPrefix(trimmed, "/")
	parts := strings.Fields(body)
	trailingSpace := strings.HasSuffix(body, " ")

	if len(parts) == 0 || (len(parts) == 1 && !trailingSpace) {
		prefix := ""
		if len(parts) == 1 {
			prefix = parts[0]
		}
		return c.completeCommand(prefix)
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil {
		return nil
	}

	args := parts[1:]
	argPrefix := ""
	if !trailingSpace {
		argPrefix = args[len(args)-1]
		args = args[:len(args)-1]
	}
	return c.completeArgs(cmd, args, argPrefix)
}

func (c *Completer) completeCommand(prefix string) []string {
	var matches []string
	for _, name := range c.registry.Names() {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, "/"+name)
		}
	}
	return matches
}

// completeArgs completes the argument at position len(done).
func (c *Completer) completeArgs(cmd *Command, done []string, prefix string) []string {
	switch cmd.Name {
	case "help":
		if len(done) == 0 {
			return c.completeCommand(prefix)
		}
	case "copy":
		if len(done) == 0 {
			return filter(copyFormats, prefix)
		}
	case "profiles":
		if len(done) == 0 {
			return filter([]string{"add"}, prefix)
		}
	case "add", "generate":
		switch len(done) {
		case 2:
			return filter(c.profiles, prefix)
		case 3:
			return filter(durationPresets, prefix)
		}
	}
	return nil
}

func filter(options []string, prefix string) []string {
	var matches []string
	for _, o := range options {
		if strings.HasPrefix(o, prefix) {
			matches = append(matches, o)
		}
	}
	sort.Strings(matches)
	return matches
}

// FindLongestCommonPrefix finds the longest common prefix among suggestions
func FindLongestCommonPrefix(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	prefix := suggestions[0]
	for _, s := range suggestions[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
