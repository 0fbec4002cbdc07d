// Package session packages X3DH and the Double Ratchet into pairwise
// sessions with a binary record format and the two 1:1 wire messages.
//
// # Messages
//
//   - WhisperMessage (type 2) continues an established ratchet.
//   - PreKeyWhisperMessage (type 3) wraps a WhisperMessage together with the
//     X3DH material the responder needs to build the session. The initiator
//     keeps sending type 3 until it has received a reply.
//
// Both are a version byte followed by protobuf fields. Authentication comes
// from the ratchet AEAD, which binds both identity keys as associated data.
//
// # Records
//
// A Record is the serialized state of one pairwise session. It is opaque to
// callers above the session repository and is copied, never rebuilt, when a
// contact changes address.
//
// Record and message values are not safe for concurrent use.
package session
