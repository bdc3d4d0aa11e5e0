// Package metrics provides lightweight, lock-free counters for tracking
// what a gtpkit controller did with its engines.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a gtpkit run.
// A nil Collector is safe to use: all methods become no-ops.
type Collector struct {
	enginesActive    atomic.Int64
	enginesTotal     atomic.Int64
	commandsSent     atomic.Int64
	failureResponses atomic.Int64
	bytesIn          atomic.Int64
	bytesOut         atomic.Int64
	launchRetries    atomic.Int64
	channelErrors    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastCommand  string
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Engine metrics ───────────────────────────────────────────────────

// EngineStarted increments both the active and total engine counters.
func (c *Collector) EngineStarted() {
	if c == nil {
		return
	}
	c.enginesActive.Add(1)
	c.enginesTotal.Add(1)
}

// EngineStopped decrements the active engine counter.
func (c *Collector) EngineStopped() {
	if c == nil {
		return
	}
	c.enginesActive.Add(-1)
}

// ActiveEngines returns the number of engines currently running.
func (c *Collector) ActiveEngines() int64 {
	if c == nil {
		return 0
	}
	return c.enginesActive.Load()
}

// TotalEngines returns the lifetime engine count.
func (c *Collector) TotalEngines() int64 {
	if c == nil {
		return 0
	}
	return c.enginesTotal.Load()
}

// LaunchRetry records a failed attempt to reach a remote engine host.
func (c *Collector) LaunchRetry() {
	if c == nil {
		return
	}
	c.launchRetries.Add(1)
}

// LaunchRetries returns the number of launch attempts that were retried.
func (c *Collector) LaunchRetries() int64 {
	if c == nil {
		return 0
	}
	return c.launchRetries.Load()
}

// ── Command metrics ──────────────────────────────────────────────────

// CommandSent records a command line of n bytes written to an engine.
func (c *Collector) CommandSent(name string, n int64) {
	if c == nil {
		return
	}
	c.commandsSent.Add(1)
	c.bytesOut.Add(n)
	c.mu.Lock()
	c.lastCommand = name
	c.mu.Unlock()
}

// ResponseReceived records a response body of n bytes.
func (c *Collector) ResponseReceived(n int64, failure bool) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
	if failure {
		c.failureResponses.Add(1)
	}
}

// CommandsSent returns the number of commands written.
func (c *Collector) CommandsSent() int64 {
	if c == nil {
		return 0
	}
	return c.commandsSent.Load()
}

// FailureResponses returns the number of "?" responses received.
func (c *Collector) FailureResponses() int64 {
	if c == nil {
		return 0
	}
	return c.failureResponses.Load()
}

// TotalBytesIn returns total response bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total command bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordChannelError increments the channel error counter and stores
// the message.
func (c *Collector) RecordChannelError(msg string) {
	if c == nil {
		return
	}
	c.channelErrors.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ChannelErrors returns the total number of channel errors recorded.
func (c *Collector) ChannelErrors() int64 {
	if c == nil {
		return 0
	}
	return c.channelErrors.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	EnginesActive    int64  `json:"engines_active"`
	EnginesTotal     int64  `json:"engines_total"`
	CommandsSent     int64  `json:"commands_sent"`
	FailureResponses int64  `json:"failure_responses"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	LaunchRetries    int64  `json:"launch_retries"`
	ChannelErrors    int64  `json:"channel_errors"`
	LastCommand      string `json:"last_command,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Second).String(),
		EnginesActive:    c.enginesActive.Load(),
		EnginesTotal:     c.enginesTotal.Load(),
		CommandsSent:     c.commandsSent.Load(),
		FailureResponses: c.failureResponses.Load(),
		BytesIn:          c.bytesIn.Load(),
		BytesOut:         c.bytesOut.Load(),
		LaunchRetries:    c.launchRetries.Load(),
		ChannelErrors:    c.channelErrors.Load(),
		LastCommand:      c.lastCommand,
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
