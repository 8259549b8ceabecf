package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

const spinnerInterval = 100 * time.Millisecond

// Spinner shows an animated message while waiting on the network. When
// the output is not a terminal it prints nothing until Stop.
type Spinner struct {
	mu      sync.Mutex
	output  io.Writer
	message string
	done    chan struct{}
	stopped bool
	isTTY   bool
}

// NewSpinner creates a spinner writing to output. isTTY enables animation.
func NewSpinner(output io.Writer, isTTY bool) *Spinner {
	return &Spinner{
		output: output,
		done:   make(chan struct{}),
		isTTY:  isTTY,
	}
}

// Start begins animating message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()

	if s.isTTY {
		go s.animate()
	}
}

// Stop halts the spinner and prints a final line. An empty message only
// clears the spinner. Stop is safe to call more than once.
func (s *Spinner) Stop(message string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	s.mu.Unlock()

	if s.isTTY {
		fmt.Fprintf(s.output, "\r%s\r", strings.Repeat(" ", lineWidth))
	}
	if message != "" {
		fmt.Fprintln(s.output, message)
	}
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.stopped {
				fmt.Fprint(s.output, pad(fmt.Sprintf("\r%s %s", spinnerFrames[frame%len(spinnerFrames)], s.message)))
			}
			s.mu.Unlock()
		}
	}
}
