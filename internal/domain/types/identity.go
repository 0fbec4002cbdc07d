package types

// Identity holds your long-term X25519 and Ed25519 keys.
type Identity struct {
	XPub   X25519Public   `json:"xpub"`
	XPriv  X25519Private  `json:"xpriv"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}

// SignedPreKeyPair is the local half of the current signed pre-key.
type SignedPreKeyPair struct {
	KeyID     uint32        `json:"key_id"`
	Priv      X25519Private `json:"priv"`
	Pub       X25519Public  `json:"pub"`
	Signature []byte        `json:"signature"`
}

// Credentials is everything the session repository needs to answer an
// incoming X3DH handshake or to start one.
type Credentials struct {
	RegistrationID uint32           `json:"registration_id"`
	Identity       Identity         `json:"identity"`
	SignedPreKey   SignedPreKeyPair `json:"signed_pre_key"`
	NextPreKeyID   uint32           `json:"next_pre_key_id"`
}
