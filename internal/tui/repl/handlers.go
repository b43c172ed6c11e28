package repl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chpines/hotspot-tickets/internal/app"
	"github.com/chpines/hotspot-tickets/internal/device"
	"github.com/chpines/hotspot-tickets/internal/duration"
	"github.com/chpines/hotspot-tickets/internal/queue"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/tui"
	"github.com/chpines/hotspot-tickets/internal/ui"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

// Defaults fill the optional arguments of /add and /generate.
type Defaults struct {
	Prefix   string
	Quantity int
	Profile  string
	Duration string
}

// connectedMsg reports the outcome of /connect.
type connectedMsg struct {
	dev      *device.Device
	profiles []string
	err      error
}

// asyncMsg carries the outcome of a background command.
type asyncMsg struct {
	output string
	err    error
}

// taskStartedMsg hands a new background run to the model.
type taskStartedMsg struct {
	task *worker.Task
}

// taskEventMsg carries one event of a running task. closed is set once the
// event stream has ended.
type taskEventMsg struct {
	task   *worker.Task
	ev     worker.Event
	closed bool
}

func waitForEvent(task *worker.Task) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-task.Events()
		return taskEventMsg{task: task, ev: ev, closed: !ok}
	}
}

func async(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := fn()
		return asyncMsg{output: out, err: err}
	}
}

// handlers implements the slash commands on top of app.App.
type handlers struct {
	ctx      context.Context
	app      *app.App
	target   device.Target
	defaults Defaults
	registry *CommandRegistry
}

func (h *handlers) bind(r *CommandRegistry) {
	h.registry = r
	set := map[string]CommandHandler{
		"help":       h.help,
		"quit":       func([]string) (string, tea.Cmd, error) { return "", nil, ErrQuit },
		"connect":    h.connect,
		"disconnect": h.disconnect,
		"profiles":   h.profiles,
		"add":        h.add,
		"queue":      h.queue,
		"clear":      h.clear,
		"process":    h.process,
		"generate":   h.generate,
		"status":     h.status,
		"export":     h.export,
		"pdf":        h.pdf,
		"copy":       h.copy,
		"cancel":     h.cancel,
	}
	for name, fn := range set {
		if cmd := r.Get(name); cmd != nil {
			cmd.Handler = fn
		}
	}
}

func (h *handlers) help(args []string) (string, tea.Cmd, error) {
	var sb strings.Builder
	if len(args) > 0 {
		cmd := h.registry.Get(strings.TrimPrefix(args[0], "/"))
		if cmd == nil {
			return "", nil, fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(&sb, "/%s - %s\n", cmd.Name, cmd.Description)
		fmt.Fprintf(&sb, "Usage: %s\n", cmd.Usage)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&sb, "Aliases: %s\n", strings.Join(cmd.Aliases, ", "))
		}
		return sb.String(), nil, nil
	}

	sb.WriteString("Available commands:\n")
	for _, cmd := range h.registry.List() {
		fmt.Fprintf(&sb, "  %-12s %s\n", "/"+cmd.Name, tui.MutedStyle.Render(cmd.Description))
	}
	sb.WriteString("\nType /help <command> for usage.")
	return sb.String(), nil, nil
}

func (h *handlers) connect(args []string) (string, tea.Cmd, error) {
	target := h.target
	if len(args) > 0 {
		target.Host = args[0]
	}
	if len(args) > 1 {
		target.Username = args[1]
	}
	if len(args) > 2 {
		target.Password = args[2]
	}
	if target.Host == "" {
		return "", nil, fmt.Errorf("usage: /connect <host> [user] [password]")
	}
	h.target = target

	cmd := func() tea.Msg {
		dev, err := h.app.Connect(h.ctx, target)
		if err != nil {
			return connectedMsg{err: err}
		}
		profiles, err := h.app.Profiles(h.ctx)
		if err != nil {
			profiles = []string{device.DefaultProfile}
		}
		return connectedMsg{dev: dev, profiles: profiles}
	}
	return "Connecting to " + target.Addr() + "...", cmd, nil
}

func (h *handlers) disconnect([]string) (string, tea.Cmd, error) {
	dev := h.app.Device()
	if dev == nil {
		return "Not connected.", nil, nil
	}
	if err := h.app.Disconnect(); err != nil {
		return "", nil, err
	}
	return "Disconnected from " + dev.String() + ".", nil, nil
}

func (h *handlers) profiles(args []string) (string, tea.Cmd, error) {
	if len(args) > 0 {
		if args[0] != "add" || len(args) < 2 {
			return "", nil, fmt.Errorf("usage: /profiles add <name> [rate-limit] [keepalive]")
		}
		spec := device.ProfileSpec{Name: args[1]}
		if len(args) > 2 {
			spec.RateLimit = args[2]
		}
		if len(args) > 3 {
			spec.KeepaliveTimeout = args[3]
		}
		return "", async(func() (string, error) {
			if err := h.app.CreateProfile(h.ctx, spec); err != nil {
				return "", err
			}
			return tui.SuccessStyle.Render("✓") + " Profile " + spec.Name + " created.", nil
		}), nil
	}

	return "", async(func() (string, error) {
		profiles, err := h.app.Profiles(h.ctx)
		if err != nil {
			return "", err
		}
		source := "device"
		if h.app.Device() == nil {
			source = "offline, default only"
		}
		return fmt.Sprintf("Profiles (%s):\n  %s", source, strings.Join(profiles, "\n  ")), nil
	}), nil
}

func (h *handlers) batchArgs(args []string) (queue.Batch, error) {
	if len(args) < 2 {
		return queue.Batch{}, fmt.Errorf("need <prefix> <quantity>")
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return queue.Batch{}, fmt.Errorf("quantity must be a number: %s", args[1])
	}
	b := queue.Batch{
		Prefix:      args[0],
		Quantity:    qty,
		Profile:     h.defaults.Profile,
		DurationRaw: h.defaults.Duration,
	}
	if len(args) > 2 {
		b.Profile = args[2]
	}
	if len(args) > 3 {
		b.DurationRaw = strings.Join(args[3:], " ")
	}
	return b, nil
}

func (h *handlers) add(args []string) (string, tea.Cmd, error) {
	b, err := h.batchArgs(args)
	if err != nil {
		return "", nil, fmt.Errorf("%w (usage: /add <prefix> <quantity> [profile] [duration])", err)
	}
	total, err := h.app.Service().Enqueue(b)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Queued %d x %s %s (%s). %d tickets pending.",
		b.Quantity, b.Prefix, tui.TagBadge(duration.Normalize(b.DurationRaw)), b.Profile, total), nil, nil
}

func (h *handlers) queue([]string) (string, tea.Cmd, error) {
	batches := h.app.Service().Queue()
	if len(batches) == 0 {
		return "Queue is empty.", nil, nil
	}
	var sb strings.Builder
	total := 0
	for i, b := range batches {
		total += b.Quantity
		fmt.Fprintf(&sb, "%2d. %-18s %6d  %-10s %-10s %s\n",
			i+1, b.Label(), b.Quantity, b.Profile, b.DurationRaw, tui.TagBadge(duration.Normalize(b.DurationRaw)))
	}
	fmt.Fprintf(&sb, "%d batches, %d tickets", len(batches), total)
	return sb.String(), nil, nil
}

func (h *handlers) clear([]string) (string, tea.Cmd, error) {
	n := len(h.app.Service().Queue())
	h.app.Service().ClearQueue()
	return fmt.Sprintf("Cleared %d batches.", n), nil, nil
}

func (h *handlers) process([]string) (string, tea.Cmd, error) {
	task, err := h.app.Process(h.ctx)
	if err != nil {
		return "", nil, err
	}
	return h.started(task), func() tea.Msg { return taskStartedMsg{task: task} }, nil
}

func (h *handlers) generate(args []string) (string, tea.Cmd, error) {
	if len(args) == 0 && h.defaults.Prefix != "" {
		args = []string{h.defaults.Prefix, strconv.Itoa(h.defaults.Quantity)}
	}
	b, err := h.batchArgs(args)
	if err != nil {
		return "", nil, fmt.Errorf("%w (usage: /generate <prefix> <quantity> [profile] [duration])", err)
	}
	task, err := h.app.Generate(h.ctx, service.AdHocRequest{
		Prefix:      b.Prefix,
		Quantity:    b.Quantity,
		Profile:     b.Profile,
		DurationRaw: b.DurationRaw,
	})
	if err != nil {
		return "", nil, err
	}
	return h.started(task), func() tea.Msg { return taskStartedMsg{task: task} }, nil
}

func (h *handlers) started(task *worker.Task) string {
	where := "locally (not connected)"
	if dev := h.app.Device(); dev != nil {
		where = "on " + dev.String()
	}
	return fmt.Sprintf("Started %s %s. /cancel to stop.", task.Name, where)
}

func (h *handlers) status([]string) (string, tea.Cmd, error) {
	var sb strings.Builder
	if dev := h.app.Device(); dev != nil {
		sb.WriteString(tui.FormatKeyValue("Device", tui.StatusIndicator(true)+" "+dev.String()) + "\n")
	} else {
		sb.WriteString(tui.FormatKeyValue("Device", tui.StatusIndicator(false)+" offline (tickets are generated locally)") + "\n")
	}

	svc := h.app.Service()
	sb.WriteString(tui.FormatKeyValue("Queue", fmt.Sprintf("%d batches, %d tickets", len(svc.Queue()), svc.QueuedTotal())) + "\n")

	if task := svc.Runner().Current(); task != nil {
		sb.WriteString(tui.FormatKeyValue("Running", task.Name+" since "+time.Since(task.StartedAt).Round(time.Second).String()) + "\n")
	}

	if res, err := svc.Result(); err == nil {
		line := res.Summary.String()
		if res.Err != nil {
			line += " (stopped: " + res.Err.Error() + ")"
		}
		sb.WriteString(tui.FormatKeyValue("Last run", line))
	} else {
		sb.WriteString(tui.FormatKeyValue("Last run", "none"))
	}
	return sb.String(), nil, nil
}

func (h *handlers) export(args []string) (string, tea.Cmd, error) {
	path := "tickets.xlsx"
	if len(args) > 0 {
		path = args[0]
	}
	return "Exporting " + path + "...", async(func() (string, error) {
		kept, err := h.app.Export(h.ctx, path)
		if err != nil {
			return "", err
		}
		return saved(path, kept), nil
	}), nil
}

func (h *handlers) pdf(args []string) (string, tea.Cmd, error) {
	path := "tickets.pdf"
	if len(args) > 0 {
		path = args[0]
	}
	return "Converting to PDF...", async(func() (string, error) {
		kept, err := h.app.ExportPDF(h.ctx, path)
		if err != nil {
			return "", err
		}
		return saved(path, kept), nil
	}), nil
}

func saved(path, kept string) string {
	out := tui.SuccessStyle.Render("✓") + " Saved " + ui.FileLink(path)
	if kept != "" {
		out += " and " + ui.FileLink(kept)
	}
	return out
}

func (h *handlers) copy(args []string) (string, tea.Cmd, error) {
	format := app.CopyPrint
	if len(args) > 0 {
		format = args[0]
	}
	text, err := h.app.CopyText(format)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Copied %d lines (%s).", strings.Count(text, "\n")+1, format), nil, nil
}

func (h *handlers) cancel([]string) (string, tea.Cmd, error) {
	if !h.app.Service().Runner().Cancel() {
		return "Nothing is running.", nil, nil
	}
	return "Cancelling...", nil, nil
}
