// Package ui holds the small line-mode prompts and progress printers used
// by the non-REPL commands.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
)

// ErrAborted is returned when the user leaves a prompt with esc or ctrl+c.
var ErrAborted = errors.New("prompt aborted")

// --- selector ---

type selectorModel struct {
	question string
	cursor   int
	choices  []string
	choice   string
}

func (m selectorModel) Init() tea.Cmd {
	return nil
}

func (m selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "enter":
		m.choice = m.choices[m.cursor]
		return m, tea.Quit
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(m.choices)
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(m.choices)) % len(m.choices)
	}
	return m, nil
}

func (m selectorModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.question + "\n\n")
	for i, choice := range m.choices {
		cursor := "  "
		if m.cursor == i {
			cursor = color.CyanString("> ")
		}
		fmt.Fprintf(&sb, "%s%s\n", cursor, choice)
	}
	sb.WriteString("\n(arrow keys to move, enter to select, q to quit)\n")
	return sb.String()
}

// --- text input ---

type textInputModel struct {
	question  string
	textInput textinput.Model
	aborted   bool
}

func newTextInput(question, placeholder, defaultValue string, secret bool) textInputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(defaultValue)
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 50
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return textInputModel{question: question, textInput: ti}
}

func (m textInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m textInputModel) View() string {
	return fmt.Sprintf("%s\n\n%s\n\n(esc to cancel)", m.question, m.textInput.View())
}

// AskSelect presents choices and returns the selected one.
func AskSelect(question string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("no options to choose from")
	}
	m, err := tea.NewProgram(selectorModel{question: question, choices: choices}).Run()
	if err != nil {
		return "", err
	}
	result := m.(selectorModel).choice
	if result == "" {
		return "", ErrAborted
	}
	return result, nil
}

// AskInput reads one line, falling back to defaultValue when left empty.
func AskInput(question, placeholder, defaultValue string) (string, error) {
	return ask(newTextInput(question, placeholder, defaultValue, false), defaultValue)
}

// AskPassword reads a secret without echoing it. An empty answer is allowed:
// RouterOS accounts may have no password.
func AskPassword(question string) (string, error) {
	m, err := tea.NewProgram(newTextInput(question, "", "", true)).Run()
	if err != nil {
		return "", err
	}
	out := m.(textInputModel)
	if out.aborted {
		return "", ErrAborted
	}
	return out.textInput.Value(), nil
}

func ask(model textInputModel, defaultValue string) (string, error) {
	m, err := tea.NewProgram(model).Run()
	if err != nil {
		return "", err
	}
	out := m.(textInputModel)
	if out.aborted {
		return "", ErrAborted
	}
	result := strings.TrimSpace(out.textInput.Value())
	if result == "" {
		if defaultValue != "" {
			return defaultValue, nil
		}
		return "", fmt.Errorf("input cannot be empty")
	}
	return result, nil
}
