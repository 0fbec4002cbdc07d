// Package store provides persistence for msgcore's key material.
//
// Key stores implement domain.KeyStore, a typed key-value store addressed by
// (kind, id), in three flavours:
//   - MemoryKeyStore, process-local, for tests and the CLI's dry runs
//   - FileKeyStore, one JSON file per kind, replaced atomically on write
//   - RedisKeyStore, one hash per kind, written through a pipeline
//
// CredentialsFileStore keeps the local identity and signed pre-key sealed
// under a passphrase (scrypt + ChaCha20-Poly1305).
//
// All types are safe for concurrent use. None of them serialise
// read-modify-write cycles across calls; that is the caller's job.
package store
