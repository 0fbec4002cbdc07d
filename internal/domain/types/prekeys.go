package types

// OneTimePreKeyPair is the full (private+public) one-time pre-key stored locally.
type OneTimePreKeyPair struct {
	KeyID uint32        `json:"key_id"`
	Priv  X25519Private `json:"priv"`
	Pub   X25519Public  `json:"pub"`
}

// PreKey is the public half of a one-time pre-key as published in a bundle.
type PreKey struct {
	KeyID     uint32       `json:"key_id"`
	PublicKey X25519Public `json:"public_key"`
}

// SignedPreKey is a published signed pre-key.
type SignedPreKey struct {
	KeyID     uint32       `json:"key_id"`
	PublicKey X25519Public `json:"public_key"`
	Signature []byte       `json:"signature"`
}

// E2ESession is the X3DH bundle used to open an outgoing session.
// SigningKey is optional; when present the signed pre-key signature is
// checked against it. PreKey is nil when the peer ran out of one-time keys.
type E2ESession struct {
	RegistrationID uint32         `json:"registration_id"`
	IdentityKey    X25519Public   `json:"identity_key"`
	SigningKey     *Ed25519Public `json:"signing_key,omitempty"`
	SignedPreKey   SignedPreKey   `json:"signed_pre_key"`
	PreKey         *PreKey        `json:"pre_key,omitempty"`
}
