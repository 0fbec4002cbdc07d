// Package prekey generates one-time pre-keys and assembles the local X3DH
// bundle that peers use to open sessions with us.
//
// One-time pairs live in the key store under kind pre-key, keyed by their
// decimal id; the session repository deletes each one when it is consumed.
package prekey
