// Package waproto encodes and decodes the protobuf application payloads that
// travel inside encrypted envelope children.
//
// Only the fields the decode pipeline acts on are modelled:
//
//   - Message.conversation (1) and extendedTextMessage (6) for content
//   - Message.senderKeyDistributionMessage (2) for group key catch-up
//   - Message.deviceSentMessage (31), the "sent to my other device" wrapper
//   - VerifiedNameCertificate and its Details for business names
//
// Every other field is preserved verbatim in Unknown so a decoded message can
// be re-encoded or merged without loss. The codec is written against
// google.golang.org/protobuf/encoding/protowire.
//
// The package also owns the random 1..16 byte padding applied to plaintexts
// before encryption.
package waproto
