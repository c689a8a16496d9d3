package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// CaptureProgress renders a single status line while a capture runs
type CaptureProgress struct {
	mu        sync.Mutex
	target    string
	records   int
	lastPost  string
	startTime time.Time
	isDebug   bool
	now       func() time.Time
}

// NewCaptureProgress creates a progress line for the given target page
func NewCaptureProgress(target string, debug bool) *CaptureProgress {
	return &CaptureProgress{
		target:    target,
		startTime: time.Now(),
		isDebug:   debug,
		now:       time.Now,
	}
}

// Record counts one captured post
func (p *CaptureProgress) Record(handle, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.records++
	p.lastPost = id
	if handle != "" {
		p.lastPost = "@" + handle + "/" + id
	}

	if p.isDebug {
		printf(false, "%s %s\n", Green("✓"), p.lastPost)
		return
	}
	p.printProgress()
}

// Records returns how many posts have been counted
func (p *CaptureProgress) Records() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.records
}

func (p *CaptureProgress) line() string {
	elapsed := p.now().Sub(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.records) / elapsed.Minutes()
	}

	line := fmt.Sprintf("%s %d captured • %.1f/min • %s",
		Cyan("[CAPTURING]"),
		p.records,
		rate,
		formatDuration(elapsed),
	)
	if p.lastPost != "" {
		line += " • " + Dim(p.lastPost)
	}
	return line
}

func (p *CaptureProgress) printProgress() {
	printf(false, "\r%s\r%s", strings.Repeat(" ", 100), p.line())
}

// Complete prints the final summary
func (p *CaptureProgress) Complete(outputPath, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.startTime)
	printf(false, "\n\n%s Captured %d posts into %s\n", Green("✓"), p.records, outputPath)
	printf(false, "  %s finished after %s (%s)\n", Dim("•"), formatDuration(elapsed), reason)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
