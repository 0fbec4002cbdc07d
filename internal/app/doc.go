// Package app wires application dependencies for the CLI.
//
// It loads Config from YAML, builds the key store, credentials store,
// mapping store, metrics and retry notifier, and exposes them via the Wire
// struct. Wire.Open unlocks the credentials and returns an App holding the
// session repository and decoder for one account.
package app
