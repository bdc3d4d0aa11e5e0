package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the engine definition file, and environment
// variable loading.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the SSH connection timeout for remote engines.
	DefaultConnTimeout = 30 * time.Second

	// DefaultMaxConnectAttempts is how many times to try reaching a
	// remote engine host before giving up.
	DefaultMaxConnectAttempts = 3

	// DefaultConnectBackoff is the delay before the first reconnection
	// attempt.
	DefaultConnectBackoff = 500 * time.Millisecond

	// DefaultMaxConnectBackoff caps the exponential backoff between
	// connection attempts.
	DefaultMaxConnectBackoff = 10 * time.Second

	// DefaultGracePeriod is how long closing a session waits for the
	// engine to exit after quit before killing it.
	DefaultGracePeriod = 5 * time.Second
)
