// Package core is the orchestration layer.  It composes launchers,
// sessions and capabilities into complete modes and provides a builder
// that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  capability  →  core  →  cmd (CLI)
//
// The engine side needs none of that: EngineMode serves a gtp.Engine
// on the standard streams.
package core

import "context"

// Mode represents a complete run of gtpkit: serving the built-in
// engine, or controlling a launched one.  Each mode owns its full
// lifecycle from start to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
