// Package backend defines the closed set of storage backends and the
// key-value contract they share.
//
// # Kinds
//
// Exactly three backends exist:
//
//   - Local:  embedded badger database under the data directory
//   - S3:     objects in an S3-compatible bucket (needs a reachable bucket)
//   - SQLite: a single SQLite file
//
// Kind values can only be obtained from this package, so the set cannot grow
// outside it. Code that must treat every kind differently implements Cases
// and calls Dispatch; a new kind adds a method to Cases and every
// implementation stops compiling until it handles it.
//
// # Storage
//
// Storage is deliberately small: Get, Put, List and Close over opaque byte
// values. GetJSON and PutJSON cover the common case of JSON documents.
// Missing paths surface as ErrNotFound so callers can distinguish "nothing
// stored yet" from an unreachable backend.
//
// Driver adds Open, the one-time handshake. Drivers live in sub-packages:
//
//   - badgerstore: Local
//   - s3store:     S3
//   - sqlitestore: SQLite
//   - memstore:    in-memory, for tests
package backend
