// Package crypto exposes the minimal primitives shared by the ratchet,
// sender-key and credential code.
//
// Contents
//
//   - X25519 key generation and Diffie–Hellman (GenerateX25519,
//     PublicFromPrivate, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// All functions return fixed-size array types defined in internal/domain to
// avoid accidental reallocations. Fingerprints are the only form of key
// material that may appear in logs.
package crypto
