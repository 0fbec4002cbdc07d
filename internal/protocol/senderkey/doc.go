// Package senderkey implements the group sender-key ratchet.
//
// Each author in a group owns a chain: a 32-byte chain key, an iteration
// counter and an Ed25519 signing key. The author hands the chain's current
// position to members once, as a DistributionMessage, and afterwards every
// group message is encrypted with a key derived from the next chain step
// and signed with the author's signing key.
//
// Chain step:
//
//	messageSeed = HMAC-SHA256(chainKey, 0x01)
//	nextChain   = HMAC-SHA256(chainKey, 0x02)
//	key||nonce  = HKDF-SHA256(messageSeed, info "msgcore-group")
//
// A Record keeps up to MaxStates chains per (group, author), newest first,
// so a member can still read messages sent just before a key rotation.
package senderkey
