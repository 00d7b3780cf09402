// Package service sits between the transports (HTTP server, REPL) and the
// sequence engine. It applies per-deployment limits such as the maximum index
// and keeps exact terms in an optional external cache.
package service
