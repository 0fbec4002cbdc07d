// Package jid parses, builds and classifies protocol identifiers.
//
// A JID has the form "user[_agent][:device]@server". The package offers
//
//   - Encode / Parse for the string form
//   - cheap suffix predicates (IsPNUser, IsLIDUser, IsGroup, ...) for hot paths
//     that only need the namespace
//   - Kind, a one-time classification of an envelope sender into a ChatKind
//     that callers switch on exhaustively
//   - SameUser, Normalize and TransferDevice for comparing identities across
//     devices and namespaces
package jid
