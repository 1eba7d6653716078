package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// spinnerFrames are cycled on the active phase line
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// PhaseProgress announces collection phases, spinning while a phase runs and
// replacing the line with a completion mark when it finishes. When animation
// is off (no TTY) each phase prints as a plain line instead.
type PhaseProgress struct {
	out      io.Writer
	colors   *Colors
	animated bool

	mu      sync.Mutex
	message string
	stop    chan struct{}
	done    chan struct{}
}

// NewPhaseProgress creates a progress printer for the given writer
func NewPhaseProgress(out io.Writer, colors *Colors, animated bool) *PhaseProgress {
	return &PhaseProgress{out: out, colors: colors, animated: animated}
}

// Start begins a phase. Any phase still spinning is cleared first.
func (p *PhaseProgress) Start(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.animated {
		fmt.Fprintln(p.out, message)
		return
	}

	p.stopSpinner("")
	p.message = message
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.spin(message, p.stop, p.done)
}

// Finish completes the current phase with a check mark
func (p *PhaseProgress) Finish(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := p.colors.Green("✓") + " " + message
	if !p.animated {
		fmt.Fprintln(p.out, line)
		return
	}
	p.stopSpinner(line)
}

// stopSpinner halts the spinner goroutine, clears its line, and writes the
// replacement. Callers hold the mutex.
func (p *PhaseProgress) stopSpinner(line string) {
	if p.stop == nil {
		if line != "" {
			fmt.Fprintln(p.out, line)
		}
		return
	}

	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil

	blank := strings.Repeat(" ", len([]rune(p.message))+2)
	fmt.Fprintf(p.out, "\r%s\r", blank)
	if line != "" {
		fmt.Fprintln(p.out, line)
	}
}

func (p *PhaseProgress) spin(message string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	fmt.Fprintf(p.out, "\r%s %s", p.colors.Green(spinnerFrames[0]), message)
	for frame := 1; ; frame++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s := spinnerFrames[frame%len(spinnerFrames)]
			fmt.Fprintf(p.out, "\r%s %s", p.colors.Green(s), message)
		}
	}
}

// FormatDuration renders a duration in seconds as a compact human string
func FormatDuration(seconds float64) string {
	s := int64(seconds + 0.5)
	if s < 1 {
		return "0s"
	}
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}

	minutes := s / 60
	remaining := s % 60
	if minutes < 60 {
		if remaining == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm %ds", minutes, remaining)
	}

	hours := minutes / 60
	remainingMinutes := minutes % 60
	if remainingMinutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, remainingMinutes)
}
