// Package storage persists the notification list behind the dispatcher's
// Store contract.
//
// It currently supports:
//   - SQLite (single file, WAL) for single-node deployments
//   - Redis for deployments sharing the panel across processes
//   - an in-memory store for tests and ephemeral panels
package storage
