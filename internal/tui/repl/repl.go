package repl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chpines/hotspot-tickets/internal/app"
	"github.com/chpines/hotspot-tickets/internal/device"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/tui"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

const maxOutputLines = 24

// Model is the BubbleTea model for the REPL
type Model struct {
	input       textinput.Model
	registry    *CommandRegistry
	completer   *Completer
	handlers    *handlers
	history     []string
	historyIdx  int
	suggestions []string
	selectedSug int
	output      string
	err         error
	quitting    bool
	version     string
	width       int
	showWelcome bool

	task     *worker.Task
	progress worker.Event
}

// Config holds REPL configuration
type Config struct {
	Version  string
	App      *app.App
	Target   device.Target
	Defaults Defaults
}

// New creates a new REPL model
func New(ctx context.Context, cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command, /help for the list"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60
	ti.PromptStyle = tui.PromptStyle
	ti.Prompt = "❯ "

	registry := DefaultCommands()
	h := &handlers{ctx: ctx, app: cfg.App, target: cfg.Target, defaults: cfg.Defaults}
	h.bind(registry)

	return Model{
		input:       ti,
		registry:    registry,
		completer:   NewCompleter(registry),
		handlers:    h,
		historyIdx:  -1,
		version:     cfg.Version,
		showWelcome: true,
		selectedSug: -1,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = min(msg.Width-10, 60)
		return m, nil

	case connectedMsg:
		if msg.err != nil {
			m.output, m.err = "", msg.err
			return m, nil
		}
		m.completer.SetProfiles(msg.profiles)
		m.output = fmt.Sprintf("%s Connected to %s. Profiles: %s",
			tui.SuccessStyle.Render("✓"), msg.dev.String(), strings.Join(msg.profiles, ", "))
		m.err = nil
		return m, nil

	case asyncMsg:
		m.output, m.err = msg.output, msg.err
		return m, nil

	case taskStartedMsg:
		m.task = msg.task
		m.progress = worker.Event{}
		return m, waitForEvent(msg.task)

	case taskEventMsg:
		if msg.task != m.task {
			return m, nil
		}
		if msg.closed {
			m.task = nil
			m.output, m.err = m.finishedRun(msg.task)
			return m, nil
		}
		if msg.ev.Kind == worker.EventProgress {
			m.progress = msg.ev
		}
		return m, waitForEvent(msg.task)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshSuggestions()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.task != nil && m.task.Running() {
			m.task.Cancel()
			m.output = "Cancelling... (ctrl+c again after it stops to quit)"
			return m, nil, true
		}
		m.quitting = true
		return m, tea.Quit, true

	case tea.KeyEnter:
		if len(m.suggestions) > 0 && m.selectedSug >= 0 && m.selectedSug < len(m.suggestions) {
			m.input.SetValue(applyCompletion(m.input.Value(), m.suggestions[m.selectedSug]))
			m.input.CursorEnd()
			m.clearSuggestions()
			return m, nil, true
		}

		input := strings.TrimSpace(m.input.Value())
		if input == "" {
			return m, nil, true
		}
		m.history = append(m.history, input)
		m.historyIdx = len(m.history)
		m.input.SetValue("")
		m.clearSuggestions()
		m.showWelcome = false

		var cmd tea.Cmd
		m.output, cmd, m.err = m.executeInput(input)
		if errors.Is(m.err, ErrQuit) {
			m.quitting = true
			return m, tea.Quit, true
		}
		return m, cmd, true

	case tea.KeyUp:
		if len(m.suggestions) > 0 {
			m.selectedSug = (m.selectedSug - 1 + len(m.suggestions)) % len(m.suggestions)
			return m, nil, true
		}
		if m.historyIdx > 0 {
			m.historyIdx--
			m.input.SetValue(m.history[m.historyIdx])
			m.input.CursorEnd()
		}
		return m, nil, true

	case tea.KeyDown:
		if len(m.suggestions) > 0 {
			m.selectedSug = (m.selectedSug + 1) % len(m.suggestions)
			return m, nil, true
		}
		if m.historyIdx < len(m.history)-1 {
			m.historyIdx++
			m.input.SetValue(m.history[m.historyIdx])
			m.input.CursorEnd()
		} else if m.historyIdx == len(m.history)-1 {
			m.historyIdx = len(m.history)
			m.input.SetValue("")
		}
		return m, nil, true

	case tea.KeyTab:
		value := m.input.Value()
		suggestions := m.completer.Complete(value)
		switch {
		case len(suggestions) == 1:
			m.input.SetValue(applyCompletion(value, suggestions[0]))
			m.input.CursorEnd()
			m.clearSuggestions()
		case len(suggestions) > 1:
			m.suggestions = suggestions
			m.selectedSug = 0
			if !strings.Contains(value, " ") {
				if common := FindLongestCommonPrefix(suggestions); len(common) > len(value) {
					m.input.SetValue(common)
					m.input.CursorEnd()
				}
			}
		}
		return m, nil, true

	case tea.KeyEsc:
		m.clearSuggestions()
		return m, nil, true
	}
	return m, nil, false
}

func (m *Model) clearSuggestions() {
	m.suggestions = nil
	m.selectedSug = -1
}

// refreshSuggestions keeps the command list open while a command name is typed.
func (m *Model) refreshSuggestions() {
	value := m.input.Value()
	if !strings.HasPrefix(value, "/") || strings.Contains(value, " ") {
		m.clearSuggestions()
		return
	}
	suggestions := m.completer.Complete(value)
	if len(suggestions) == 0 || len(suggestions) > 8 {
		m.clearSuggestions()
		return
	}
	m.suggestions = suggestions
	if m.selectedSug >= len(suggestions) || m.selectedSug < 0 {
		m.selectedSug = 0
	}
}

// applyCompletion replaces the word being typed with suggestion.
func applyCompletion(input, suggestion string) string {
	i := strings.LastIndex(input, " ")
	if i < 0 {
		return suggestion + " "
	}
	return input[:i+1] + suggestion + " "
}

func (m Model) finishedRun(task *worker.Task) (string, error) {
	err := task.Err()
	res, resErr := m.handlers.app.Service().Result()
	switch {
	case service.Cancelled(err):
		if resErr == nil && !res.FinishedAt.Before(task.StartedAt) {
			return tui.WarningStyle.Render("⚠") + " Cancelled. Kept " + res.Summary.String(), nil
		}
		return tui.WarningStyle.Render("⚠") + " Cancelled before any ticket was generated.", nil
	case err != nil:
		return "", err
	case resErr != nil:
		return "", resErr
	}

	out := tui.SuccessStyle.Render("✓") + " " + res.Summary.String()
	if res.Summary.Failed > 0 {
		out += "\n" + tui.WarningStyle.Render("  some tickets failed on the device, see /export for details")
	}
	return out + "\n  /export, /pdf or /copy to use them.", nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var sb strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(tui.ColorPrimary).Render("Hotspot Tickets")
	sb.WriteString(title + tui.MutedStyle.Render(" "+m.version) + "  " + m.connectionLine() + "\n")
	sb.WriteString(tui.MutedStyle.Render(strings.Repeat("─", 48)) + "\n\n")

	if m.showWelcome {
		sb.WriteString(m.renderWelcome())
	} else if m.output != "" {
		lines := strings.Split(strings.TrimSpace(m.output), "\n")
		if len(lines) > maxOutputLines {
			lines = append(lines[:maxOutputLines], tui.MutedStyle.Render("... (truncated)"))
		}
		for _, line := range lines {
			sb.WriteString("  " + line + "\n")
		}
		sb.WriteString("\n")
	}

	if m.err != nil {
		sb.WriteString(tui.ErrorStyle.Render("  ✗ "+m.err.Error()) + "\n\n")
	}

	if m.task != nil {
		sb.WriteString("  " + m.renderProgress() + "\n\n")
	}

	sb.WriteString(m.input.View() + "\n")

	if len(m.suggestions) > 0 {
		sb.WriteString("\n")
		for i, s := range m.suggestions {
			if i == m.selectedSug {
				sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(tui.ColorPrimary).
					Background(lipgloss.Color("236")).Padding(0, 1).Render(s) + "\n")
				continue
			}
			desc := ""
			if cmd := m.registry.Get(strings.TrimPrefix(s, "/")); cmd != nil {
				desc = " " + tui.MutedStyle.Render(cmd.Description)
			}
			sb.WriteString(tui.MutedStyle.Render("  "+s) + desc + "\n")
		}
	}

	sb.WriteString("\n" + tui.MutedStyle.Render("Tab: complete • ↑↓: history • Enter: run • Ctrl+C: cancel/quit"))
	return sb.String()
}

func (m Model) connectionLine() string {
	if dev := m.handlers.app.Device(); dev != nil {
		return tui.StatusIndicator(true) + " " + dev.String()
	}
	return tui.StatusIndicator(false) + tui.MutedStyle.Render(" offline")
}

func (m Model) renderProgress() string {
	done, total := m.progress.Done, m.progress.Total
	percent := 0.0
	if total > 0 {
		percent = float64(done) * 100 / float64(total)
	}
	line := fmt.Sprintf("%s %s %d/%d", m.task.Name, tui.ProgressBar(percent, 30), done, total)
	if m.progress.Message != "" {
		line += tui.MutedStyle.Render(" " + m.progress.Message)
	}
	return line
}

func (m Model) renderWelcome() string {
	var sb strings.Builder
	steps := []struct {
		cmd  string
		desc string
	}{
		{"/connect", "Connect to the access point (optional)"},
		{"/add H 100", "Queue 100 vouchers with prefix H"},
		{"/process", "Generate the queue"},
		{"/pdf", "Print-ready sheet"},
		{"/help", "All commands"},
	}
	sb.WriteString("  " + tui.LabelStyle.Render("Getting started:") + "\n")
	for _, s := range steps {
		cmd := lipgloss.NewStyle().Foreground(tui.ColorPrimary).Render(fmt.Sprintf("%-12s", s.cmd))
		sb.WriteString(fmt.Sprintf("    %s %s\n", cmd, tui.MutedStyle.Render(s.desc)))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m *Model) executeInput(input string) (string, tea.Cmd, error) {
	name, found := strings.CutPrefix(input, "/")
	if !found {
		return "", nil, fmt.Errorf("commands start with /  (try /help)")
	}
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", nil, nil
	}

	cmd := m.registry.Get(parts[0])
	if cmd == nil {
		return "", nil, fmt.Errorf("unknown: /%s (try /help)", parts[0])
	}
	if cmd.Handler == nil {
		return "", nil, fmt.Errorf("/%s not implemented", cmd.Name)
	}
	return cmd.Handler(parts[1:])
}

// Run starts the REPL and blocks until the user quits.
func Run(ctx context.Context, cfg Config) error {
	_, err := tea.NewProgram(New(ctx, cfg), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
