// Package decode turns inbound message envelopes into WebMessages.
//
// Decoding runs in two stages. Classify inspects the envelope attributes
// only: it decides the chat, the author and the key used for cryptographic
// lookups, and rejects malformed envelopes with a *FatalDecodeError carrying
// the NACK reason to send back. Decrypt then walks the children. Every child
// yields either decrypted content or a stub; no per-child failure escapes
// the stage, it is recorded on the message instead.
//
// Decoder ties both stages to a session repository, applies the mapping
// hints learned from the envelope, and reports stubbed decrypts to a
// RetryNotifier.
package decode
