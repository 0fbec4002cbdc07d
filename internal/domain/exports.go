package domain

import (
	interfaces "msgcore/internal/domain/interfaces"
	types "msgcore/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	ProtocolAddress   = types.ProtocolAddress
	Fingerprint       = types.Fingerprint
	SenderKeyName     = types.SenderKeyName
	KeyKind           = types.KeyKind
	KeyData           = types.KeyData
	CiphertextKind    = types.CiphertextKind
	Identity          = types.Identity
	SignedPreKeyPair  = types.SignedPreKeyPair
	Credentials       = types.Credentials
	OneTimePreKeyPair = types.OneTimePreKeyPair
	PreKey            = types.PreKey
	SignedPreKey      = types.SignedPreKey
	E2ESession        = types.E2ESession
	RatchetHeader     = types.RatchetHeader
	RatchetState      = types.RatchetState
	MessageKey        = types.MessageKey
	WebMessage        = types.WebMessage
	StubType          = types.StubType
	MessageStatus     = types.MessageStatus
	LIDMapping        = types.LIDMapping
	MigrationResult   = types.MigrationResult
	AddressingMode    = types.AddressingMode
	AddressingContext = types.AddressingContext
	RetryHint         = types.RetryHint
	NackReason        = types.NackReason
	Node              = types.Node
	MessageAttrs      = types.MessageAttrs
	X25519Public      = types.X25519Public
	X25519Private     = types.X25519Private
	Ed25519Public     = types.Ed25519Public
	Ed25519Private    = types.Ed25519Private

	DecryptRequest               = types.DecryptRequest
	EncryptRequest               = types.EncryptRequest
	EncryptResult                = types.EncryptResult
	GroupDecryptRequest          = types.GroupDecryptRequest
	GroupEncryptRequest          = types.GroupEncryptRequest
	GroupEncryptResult           = types.GroupEncryptResult
	InjectSessionRequest         = types.InjectSessionRequest
	SenderKeyDistributionRequest = types.SenderKeyDistributionRequest
)

// Key constructors.
var (
	X25519PublicFromBytes  = types.X25519PublicFromBytes
	Ed25519PublicFromBytes = types.Ed25519PublicFromBytes
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyStore          = interfaces.KeyStore
	CredentialsStore  = interfaces.CredentialsStore
	DirectoryResolver = interfaces.DirectoryResolver
	DirectoryFunc     = interfaces.DirectoryFunc
	LIDMappingStore   = interfaces.LIDMappingStore
	SignalRepository  = interfaces.SignalRepository
	RetryNotifier     = interfaces.RetryNotifier
	IdentityService   = interfaces.IdentityService
	PreKeyService     = interfaces.PreKeyService
)

// Key-store kinds and ciphertext kinds used across services.
const (
	KindSession     = types.KindSession
	KindSenderKey   = types.KindSenderKey
	KindPreKey      = types.KindPreKey
	KindLIDMapping  = types.KindLIDMapping
	KindDeviceList  = types.KindDeviceList
	KindIdentityKey = types.KindIdentityKey

	CiphertextPreKey  = types.CiphertextPreKey
	CiphertextOngoing = types.CiphertextOngoing
	CiphertextGroup   = types.CiphertextGroup

	AddressingPN  = types.AddressingPN
	AddressingLID = types.AddressingLID
)
