package types

import "strconv"

// ProtocolAddress names one device's cryptographic session: the JID user plus
// the device id (0 for the primary device).
type ProtocolAddress struct {
	Name     string `json:"name"`
	DeviceID uint32 `json:"device_id"`
}

// String returns the "{name}.{device}" form used as the session key.
func (a ProtocolAddress) String() string {
	return a.Name + "." + strconv.FormatUint(uint64(a.DeviceID), 10)
}

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SenderKeyName identifies one author's sender-key stream inside a group.
type SenderKeyName struct {
	GroupID string          `json:"group_id"`
	Sender  ProtocolAddress `json:"sender"`
}

// String returns the key used to persist the sender-key record.
func (n SenderKeyName) String() string {
	return n.GroupID + "::" + n.Sender.String()
}

// KeyKind selects a namespace in the durable key store.
type KeyKind string

const (
	KindSession     KeyKind = "session"
	KindSenderKey   KeyKind = "sender-key"
	KindPreKey      KeyKind = "pre-key"
	KindLIDMapping  KeyKind = "lid-mapping"
	KindDeviceList  KeyKind = "device-list"
	KindIdentityKey KeyKind = "identity-key"
)

// KeyData is a partial dataset written to the key store in one call.
// A nil value deletes the id.
type KeyData map[KeyKind]map[string][]byte

// CiphertextKind distinguishes the two 1:1 ciphertext shapes.
type CiphertextKind string

const (
	// CiphertextPreKey starts a session (X3DH material attached).
	CiphertextPreKey CiphertextKind = "pkmsg"
	// CiphertextOngoing continues an established ratchet.
	CiphertextOngoing CiphertextKind = "msg"
	// CiphertextGroup is a sender-key group message.
	CiphertextGroup CiphertextKind = "skmsg"
)
