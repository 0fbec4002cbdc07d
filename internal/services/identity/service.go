package identity

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"unicode"

	"github.com/sirupsen/logrus"

	"msgcore/internal/crypto"
	"msgcore/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12

	// registrationIDMask keeps registration ids within 14 bits.
	registrationIDMask = 16383

	firstSignedPreKeyID = 1
	firstPreKeyID       = 1
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages credential creation and access using a backing store.
//
// The credentials contain:
//   - X25519 key pair for Diffie-Hellman (X3DH and Double Ratchet).
//   - Ed25519 key pair for signing the signed pre-key.
//   - The current signed pre-key and the next one-time pre-key id.
type Service struct {
	store domain.CredentialsStore
	log   logrus.FieldLogger
}

// New returns an identity service backed by the given store.
func New(s domain.CredentialsStore, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: s, log: log}
}

// GenerateCredentials creates a new identity with its first signed pre-key,
// saves it encrypted with the passphrase, and returns it plus a short
// fingerprint of the X25519 public key.
func (s *Service) GenerateCredentials(passphrase string) (domain.Credentials, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Credentials{}, "", ErrWeakPassphrase
	}

	// Generate Diffie-Hellman keypair for X3DH.
	identityDiffieHellmanPrivateKey, identityDiffieHellmanPublicKey, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Credentials{}, "", err
	}
	// Generate signing keypair.
	identitySigningPrivateKey, identitySigningPublicKey, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Credentials{}, "", err
	}
	signedPreKeyPrivate, signedPreKeyPublic, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Credentials{}, "", err
	}
	regID, err := registrationID()
	if err != nil {
		return domain.Credentials{}, "", err
	}

	creds := domain.Credentials{
		RegistrationID: regID,
		Identity: domain.Identity{
			XPub:   identityDiffieHellmanPublicKey,
			XPriv:  identityDiffieHellmanPrivateKey,
			EdPub:  identitySigningPublicKey,
			EdPriv: identitySigningPrivateKey,
		},
		SignedPreKey: domain.SignedPreKeyPair{
			KeyID:     firstSignedPreKeyID,
			Priv:      signedPreKeyPrivate,
			Pub:       signedPreKeyPublic,
			Signature: crypto.SignEd25519(identitySigningPrivateKey, signedPreKeyPublic[:]),
		},
		NextPreKeyID: firstPreKeyID,
	}
	if err := s.store.SaveCredentials(passphrase, creds); err != nil {
		return domain.Credentials{}, "", err
	}

	fp := crypto.Fingerprint(creds.Identity.XPub.Slice())
	s.log.WithFields(logrus.Fields{
		"fingerprint":     fp,
		"registration_id": regID,
	}).Info("identity: generated credentials")
	return creds, fp, nil
}

// LoadCredentials decrypts and returns the local credentials.
func (s *Service) LoadCredentials(passphrase string) (domain.Credentials, error) {
	return s.store.LoadCredentials(passphrase)
}

// Fingerprint returns a short fingerprint of the local X25519 public key.
func (s *Service) Fingerprint(passphrase string) (domain.Fingerprint, error) {
	creds, err := s.store.LoadCredentials(passphrase)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(creds.Identity.XPub.Slice()), nil
}

func registrationID() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]) & registrationIDMask, nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
