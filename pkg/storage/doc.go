// Package storage defines the persistence contracts for users and payment
// records, plus the sentinel errors every adapter returns.
//
// Adapters live in subpackages: memory (tests and single-process
// deployments), postgres (pgx pool with goose migrations) and sqlite (gorm).
package storage
