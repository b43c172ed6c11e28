package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line status while a blocking step runs, such as
// dialing the access point.
type Spinner struct {
	mu        sync.Mutex
	message   string
	running   bool
	done      chan struct{}
	stopped   chan struct{}
	writer    io.Writer
	startTime time.Time
}

// NewSpinner returns a spinner writing to stdout.
func NewSpinner() *Spinner {
	return &Spinner{writer: os.Stdout}
}

// SetWriter redirects the spinner output.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the animation. Starting a running spinner is a no-op.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.message = message
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	s.startTime = time.Now()
	go s.animate(s.done, s.stopped)
}

// Update replaces the message while running.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop ends the animation and prints finalMessage, if any.
func (s *Spinner) Stop(finalMessage string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped
	fmt.Fprint(s.writer, "\r\033[K")
	if finalMessage != "" {
		fmt.Fprintln(s.writer, finalMessage)
	}
}

func (s *Spinner) Success(message string) { s.Stop(color.GreenString("✓") + " " + message) }
func (s *Spinner) Fail(message string)    { s.Stop(color.RedString("✗") + " " + message) }

func (s *Spinner) animate(done, stopped chan struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			line := color.CyanString(spinnerFrames[frame%len(spinnerFrames)]) + " " + s.message
			if elapsed := time.Since(s.startTime); elapsed > time.Second {
				line += color.HiBlackString(" (%s)", formatElapsed(elapsed))
			}
			w := s.writer
			s.mu.Unlock()
			fmt.Fprint(w, "\r\033[K"+line)
		}
	}
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// RunWithSpinner runs fn behind a spinner and reports how it went.
func RunWithSpinner(message string, fn func() error) error {
	s := NewSpinner()
	s.Start(message)
	if err := fn(); err != nil {
		s.Fail(message + " - failed")
		return err
	}
	s.Success(message)
	return nil
}

// StatusLine prints one-shot status messages with a colored marker.
type StatusLine struct {
	writer io.Writer
}

// NewStatusLine writes to w, or stdout when w is nil.
func NewStatusLine(w io.Writer) *StatusLine {
	if w == nil {
		w = os.Stdout
	}
	return &StatusLine{writer: w}
}

func (sl *StatusLine) Success(format string, args ...any) {
	fmt.Fprintf(sl.writer, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func (sl *StatusLine) Fail(format string, args ...any) {
	fmt.Fprintf(sl.writer, "%s %s\n", color.RedString("✗"), fmt.Sprintf(format, args...))
}

func (sl *StatusLine) Warning(format string, args ...any) {
	fmt.Fprintf(sl.writer, "%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}

func (sl *StatusLine) Info(format string, args ...any) {
	fmt.Fprintf(sl.writer, "%s %s\n", color.BlueString("ℹ"), fmt.Sprintf(format, args...))
}

// Step prints "[current/total] message", e.g. one line per processed batch.
func (sl *StatusLine) Step(current, total int, message string) {
	fmt.Fprintf(sl.writer, "%s %s %s\n", color.CyanString("▸"), color.HiBlackString("[%d/%d]", current, total), message)
}

// ProgressBar redraws a single line as vouchers are provisioned.
type ProgressBar struct {
	mu      sync.Mutex
	writer  io.Writer
	total   int
	current int
	message string
	width   int
}

// NewProgressBar returns a bar for total items.
func NewProgressBar(total int, message string) *ProgressBar {
	return &ProgressBar{writer: os.Stdout, total: total, message: message, width: 30}
}

// SetWriter redirects the bar output.
func (pb *ProgressBar) SetWriter(w io.Writer) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.writer = w
}

// Update sets the progress and, when total changes mid-run, the total.
func (pb *ProgressBar) Update(current, total int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current = current
	if total > 0 {
		pb.total = total
	}
	pb.render()
}

// Finish ends the line. The bar is left where the run stopped.
func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.render()
	fmt.Fprintln(pb.writer)
}

func (pb *ProgressBar) render() {
	fmt.Fprintf(pb.writer, "\r%s %s %s %d/%d",
		color.CyanString("▸"),
		pb.message,
		color.HiBlackString("[%s]", Bar(pb.current, pb.total, pb.width)),
		pb.current, pb.total)
}

// Bar draws a plain text bar of width cells for current out of total.
func Bar(current, total, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := 0
	if total > 0 {
		filled = min(current*width/total, width)
	}
	filled = max(filled, 0)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
