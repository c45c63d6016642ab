// Package cache provides response caching for the places gateway with a
// Redis backend.
//
// The store is a best-effort accelerator, not a system of record: every
// operation fails open. A disconnected or erroring Redis turns reads into
// misses and writes into no-ops, and never surfaces an error to the
// request path.
package cache
