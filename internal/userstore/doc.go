// Package userstore persists the local user's identity across runs.
//
// A Store reads and writes a single JSON record through an injected KV
// backend. MemoryKV keeps it for the life of the process; PebbleKV keeps
// it on disk.
package userstore
