package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress tracks export progress and draws a one-line bar.
type Progress struct {
	startTime time.Time
	output    io.Writer
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a progress tracker writing to out (default: stderr).
func NewProgress(total int, enabled bool, out io.Writer) *Progress {
	if out == nil {
		out = os.Stderr
	}
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    out,
		enabled:   enabled,
	}
}

// Update records the completion of a task.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Print draws the current progress line.
func (p *Progress) Print() {
	p.mu.RLock()
	completed, total, failed := p.completed, p.total, p.failed
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	var rate float64
	var eta time.Duration
	if completed > 0 && elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		eta = time.Duration(float64(total-completed) / rate * float64(time.Second))
	}

	filled := 0
	if total > 0 {
		filled = min(barWidth, completed*barWidth/total)
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s] %d/%d tiles", bar, completed, total)
	if failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", failed)
	}
	fmt.Fprintf(&b, " - %.1f tiles/sec", rate)
	switch {
	case completed >= total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	case eta > 0:
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}
	// Clear leftovers of a longer previous line.
	b.WriteString("          ")

	fmt.Fprint(p.output, b.String())
}

// Done prints the final progress and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary describes the outcome of a run.
func (p *Progress) Summary(results []Result) string {
	p.mu.RLock()
	elapsed := time.Since(p.startTime)
	total := p.total
	p.mu.RUnlock()

	var exported, skipped, failed, features int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Output.Skipped:
			skipped++
		default:
			exported++
			features += r.Output.Features
		}
	}

	return fmt.Sprintf("Exported %d/%d tiles with %d features (%d skipped, %d failed) in %s",
		exported, total, features, skipped, failed, formatDuration(elapsed))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
