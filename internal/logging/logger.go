// Package logging defines the structured logger the gateway components are
// written against. The server wires a slog-backed implementation; tests
// substitute one writing to a buffer or to io.Discard.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key-value pairs:
//
//	log.Info(ctx, "request", "method", m, "path", p, "status", code)
type Logger interface {
	// Debug logs diagnostic detail, off by default in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions, such as rejected requests.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value
	// pairs, used to pin per-request attributes once.
	With(args ...any) Logger
}
