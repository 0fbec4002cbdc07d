// Package identity creates, seals and loads the local credentials.
//
// It enforces the passphrase policy, generates the X25519 and Ed25519 key
// pairs plus the first signed pre-key, and persists them through a
// domain.CredentialsStore.
package identity
