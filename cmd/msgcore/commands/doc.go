// Package commands defines the msgcore CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init              Create the local identity and a first batch of pre-keys
//   - fingerprint       Print the identity fingerprint
//   - bundle            Print the X3DH bundle peers use to open a session
//   - jid               Decode identifiers and print their parts
//   - decode            Decode JSON envelopes read from a file or stdin
//   - mapping store     Remember LID/PN pairs (and optionally publish them)
//   - mapping resolve   Resolve LIDs through the cache and the directory
//   - migrate           Copy a contact's PN sessions to its LID
//   - session validate  Check a stored session
//   - session delete    Drop stored sessions
//
// # Implementation
//
// The root command loads the YAML config, applies flag overrides and builds
// the dependency graph (stores, mapping store, metrics, retry notifier)
// before any subcommand runs. Commands that need the session repository
// unlock the credentials with the passphrase.
package commands
