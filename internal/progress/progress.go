// Package progress renders download progress and spinners on a terminal.
// Nothing is animated when the output is not a TTY.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check if a file descriptor is a terminal.
// It can be overridden for testing.
var IsTerminalFunc = term.IsTerminal

// lineWidth is the width cleared when redrawing a progress line.
const lineWidth = 80

// Reader wraps an io.Reader and draws a progress line as bytes are read.
type Reader struct {
	reader    io.Reader
	output    io.Writer
	label     string
	total     int64
	read      int64
	startTime time.Time
	lastPrint time.Time
	mu        sync.Mutex
}

// NewReader creates a progress reader. If total is <= 0, no percentage or
// ETA is shown.
func NewReader(r io.Reader, label string, total int64, output io.Writer) *Reader {
	return &Reader{
		reader:    r,
		output:    output,
		label:     label,
		total:     total,
		startTime: time.Now(),
	}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.mu.Lock()
		pr.read += int64(n)
		pr.printProgress(time.Now())
		pr.mu.Unlock()
	}
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (pr *Reader) BytesRead() int64 {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.read
}

// Finish clears the progress line.
func (pr *Reader) Finish() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	fmt.Fprintf(pr.output, "\r%s\r", strings.Repeat(" ", lineWidth))
}

// printProgress redraws the line at most ten times per second.
func (pr *Reader) printProgress(now time.Time) {
	if now.Sub(pr.lastPrint) < 100*time.Millisecond {
		return
	}
	elapsed := now.Sub(pr.startTime).Seconds()
	if elapsed < 0.1 {
		return
	}
	pr.lastPrint = now

	fmt.Fprint(pr.output, pad(pr.line(elapsed)))
}

func (pr *Reader) line(elapsed float64) string {
	speed := float64(pr.read) / elapsed

	if pr.total <= 0 {
		return fmt.Sprintf("\r   %s: %s (%s/s)",
			pr.label, humanize.Bytes(uint64(pr.read)), humanize.Bytes(uint64(speed)))
	}

	percent := float64(pr.read) / float64(pr.total) * 100
	if percent > 100 {
		percent = 100
	}

	eta := "--:--"
	if speed > 0 {
		eta = formatDuration(float64(pr.total-pr.read) / speed)
	}

	return fmt.Sprintf("\r   %s [%s] %3.0f%% (%s/%s) ETA: %s",
		pr.label,
		bar(percent, 24),
		percent,
		humanize.Bytes(uint64(pr.read)),
		humanize.Bytes(uint64(pr.total)),
		eta,
	)
}

func bar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	b := strings.Repeat("=", filled)
	if filled < width {
		b += ">" + strings.Repeat(" ", width-filled-1)
	}
	return b
}

func pad(line string) string {
	if len(line) < lineWidth {
		line += strings.Repeat(" ", lineWidth-len(line))
	}
	return line
}

// formatDuration formats seconds into MM:SS or HH:MM:SS format
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && IsTerminalFunc(int(f.Fd()))
}

// DownloadHook returns a function that wraps artifact downloads in a
// progress Reader drawn on output. It returns nil when output is not a
// terminal, so callers can install it unconditionally.
func DownloadHook(output *os.File) func(name string, total int64, r io.Reader) (io.Reader, func()) {
	if !IsTerminal(output) {
		return nil
	}
	return func(name string, total int64, r io.Reader) (io.Reader, func()) {
		pr := NewReader(r, name, total, output)
		return pr, pr.Finish
	}
}
