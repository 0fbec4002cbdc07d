package types

// DecryptRequest is a 1:1 ciphertext addressed by JID.
type DecryptRequest struct {
	JID        string
	Kind       CiphertextKind
	Ciphertext []byte
}

// EncryptRequest is a 1:1 plaintext addressed by JID.
type EncryptRequest struct {
	JID  string
	Data []byte
}

// EncryptResult is the output of a 1:1 encrypt.
type EncryptResult struct {
	Kind       CiphertextKind
	Ciphertext []byte
}

// GroupDecryptRequest is a sender-key ciphertext from author in group.
type GroupDecryptRequest struct {
	Group     string
	AuthorJID string
	Msg       []byte
}

// SenderKeyDistributionRequest feeds a received distribution message.
type SenderKeyDistributionRequest struct {
	GroupID   string
	AuthorJID string
	Payload   []byte
}

// GroupEncryptRequest encrypts data for a group as self.
type GroupEncryptRequest struct {
	Group   string
	SelfJID string
	Data    []byte
}

// GroupEncryptResult carries the ciphertext plus the distribution message
// that lets recipients without state catch up.
type GroupEncryptResult struct {
	Ciphertext          []byte
	DistributionMessage []byte
}

// InjectSessionRequest opens an outgoing session from a bundle.
type InjectSessionRequest struct {
	JID     string
	Session E2ESession
}
