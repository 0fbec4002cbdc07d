package types

import "msgcore/internal/waproto"

// MessageKey identifies one decoded message and carries every alternate
// identity hint seen on its envelope.
type MessageKey struct {
	RemoteJID        string `json:"remote_jid"`
	FromMe           bool   `json:"from_me"`
	ID               string `json:"id"`
	Participant      string `json:"participant,omitempty"`
	ParticipantPN    string `json:"participant_pn,omitempty"`
	ParticipantLID   string `json:"participant_lid,omitempty"`
	SenderPN         string `json:"sender_pn,omitempty"`
	SenderLID        string `json:"sender_lid,omitempty"`
	PeerRecipientPN  string `json:"peer_recipient_pn,omitempty"`
	PeerRecipientLID string `json:"peer_recipient_lid,omitempty"`
	IsViewOnce       bool   `json:"is_view_once,omitempty"`
}

// StubType marks a placeholder message produced when no real content could
// be recovered.
type StubType int

const (
	StubNone StubType = 0
	// StubCiphertext means decryption failed or there was nothing to decrypt.
	StubCiphertext StubType = 2
)

// StubParamNoMessageFound is the stub parameter of an envelope with nothing
// to decrypt.
const StubParamNoMessageFound = "Message absent from node"

// MessageStatus is the delivery state stamped on a message.
type MessageStatus int

const (
	StatusError MessageStatus = iota
	StatusPending
	StatusServerAck
	StatusDeliveryAck
	StatusRead
	StatusPlayed
)

// WebMessage is the decoded form of one inbound envelope.
type WebMessage struct {
	Key                MessageKey       `json:"key"`
	Timestamp          int64            `json:"timestamp,omitempty"`
	PushName           string           `json:"push_name,omitempty"`
	Broadcast          bool             `json:"broadcast,omitempty"`
	Category           string           `json:"category,omitempty"`
	Status             MessageStatus    `json:"status,omitempty"`
	Message            *waproto.Message `json:"message,omitempty"`
	StubType           StubType         `json:"stub_type,omitempty"`
	StubParameters     []string         `json:"stub_parameters,omitempty"`
	VerifiedBizName    string           `json:"verified_biz_name,omitempty"`
	RetryCount         int              `json:"retry_count,omitempty"`
	SessionRecordError bool             `json:"session_record_error,omitempty"`
}

// IsStub reports whether the message is a placeholder.
func (m *WebMessage) IsStub() bool { return m.StubType != StubNone }

// LIDMapping correlates a LID with the phone-number identifier it stands for.
type LIDMapping struct {
	LID string `json:"lid"`
	PN  string `json:"pn"`
}

// MigrationResult counts the device sessions touched by one migration.
type MigrationResult struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// AddressingMode is the namespace an envelope's sender is addressed in.
type AddressingMode string

const (
	AddressingPN  AddressingMode = "pn"
	AddressingLID AddressingMode = "lid"
)

// AddressingContext holds the alternate-namespace hints of one envelope.
// Empty strings mean absent.
type AddressingContext struct {
	Mode         AddressingMode `json:"mode"`
	SenderAlt    string         `json:"sender_alt,omitempty"`
	RecipientAlt string         `json:"recipient_alt,omitempty"`
}

// RetryHint is handed to the retry subsystem for every stubbed decrypt.
type RetryHint struct {
	ID                 string     `json:"id"`
	Key                MessageKey `json:"key"`
	Error              string     `json:"error"`
	SessionRecordError bool       `json:"session_record_error"`
	RetryCount         int        `json:"retry_count"`
}
