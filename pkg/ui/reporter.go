package ui

import (
	"fmt"
	"time"
)

// ConsoleReporter prints one line per fetch attempt and tracks progress.
// Skips are counted but not printed.
type ConsoleReporter struct {
	console *Console
	tracker *StatusTracker
}

// NewConsoleReporter creates a reporter for a run over total rows
func NewConsoleReporter(console *Console, total int) *ConsoleReporter {
	return &ConsoleReporter{
		console: console,
		tracker: NewStatusTracker(total),
	}
}

// Downloaded reports a written image
func (r *ConsoleReporter) Downloaded(id string) {
	r.tracker.IncrementDownloaded()
	r.console.PrintSuccess("Downloaded image %s", id)
}

// Failed reports a non-200 response
func (r *ConsoleReporter) Failed(id string, status int) {
	r.tracker.IncrementFailed()
	r.console.PrintWarning("Failed %s | Status: %d", id, status)
}

// Skipped counts a row whose image already existed
func (r *ConsoleReporter) Skipped(id string) {
	r.tracker.IncrementSkipped()
}

// Tracker returns the progress tracker
func (r *ConsoleReporter) Tracker() *StatusTracker {
	return r.tracker
}

// PrintFinished prints the completion block. downloaded includes failed
// attempts.
func (r *ConsoleReporter) PrintFinished(downloaded, skipped int) {
	r.console.PrintSuccess("Download finished ✅")
	r.console.PrintDim("%s in %s", r.tracker.GetProgress(), r.tracker.GetElapsedTime().Round(time.Second))
	r.console.PrintSummary("Downloaded", downloaded)
	r.console.PrintSummary("Skipped", skipped)
}

// FinishedMessage is the one-line completion text used for notifications
func FinishedMessage(downloaded, skipped, failed int) string {
	return fmt.Sprintf("Downloaded: %d, Skipped: %d, Failed: %d", downloaded, skipped, failed)
}
