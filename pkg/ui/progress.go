package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of ingestion progress
type StatusTracker struct {
	mu         sync.Mutex
	total      int
	downloaded int
	failed     int
	skipped    int
	startTime  time.Time
}

// NewStatusTracker creates a tracker for total rows
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// IncrementDownloaded counts a successful fetch
func (st *StatusTracker) IncrementDownloaded() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.downloaded++
}

// IncrementFailed counts a fetch that returned no image
func (st *StatusTracker) IncrementFailed() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.failed++
}

// IncrementSkipped counts a row whose image already existed
func (st *StatusTracker) IncrementSkipped() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.skipped++
}

// Processed returns how many rows have been handled
func (st *StatusTracker) Processed() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.downloaded + st.failed + st.skipped
}

// Counts returns downloaded, failed and skipped tallies
func (st *StatusTracker) Counts() (downloaded, failed, skipped int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.downloaded, st.failed, st.skipped
}

// GetProgress returns a formatted progress bar over all rows
func (st *StatusTracker) GetProgress() string {
	const width = 20
	processed := st.Processed()

	filled := 0
	if st.total > 0 {
		filled = processed * width / st.total
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, processed, st.total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.startTime)
}

// GetFetchRate returns the average fetch attempts per minute
func (st *StatusTracker) GetFetchRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	downloaded, failed, _ := st.Counts()
	return float64(downloaded+failed) / elapsed
}
