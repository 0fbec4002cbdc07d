// Package signal is the session repository: the only component that reads
// and writes session and sender-key state.
//
// It maps JIDs to protocol addresses, drives the ratchet primitives in
// internal/protocol, and persists every record through a domain.KeyStore.
// Each read-modify-write runs under a per-address (or per sender-key name)
// lock so two decrypts from the same sender can never desync a ratchet.
//
// Identity keys are trusted on first use; no pinning is enforced here.
package signal
