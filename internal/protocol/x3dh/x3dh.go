package x3dh

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"errors"

	"msgcore/internal/crypto"
	"msgcore/internal/domain"
	"msgcore/internal/util/memzero"
)

// ErrBadSPK is returned when a bundle's signed pre-key signature fails.
var ErrBadSPK = errors.New("x3dh: signed pre-key signature invalid")

// InitiatorRoot verifies the bundle and derives the root key for an outgoing
// session. It returns the root key and the ephemeral (base) key pair whose
// public half must travel in the first pre-key message.
func InitiatorRoot(id domain.Identity, bundle domain.E2ESession) (
	root []byte,
	ephPriv domain.X25519Private,
	ephPub domain.X25519Public,
	err error,
) {
	if bundle.SigningKey != nil &&
		!VerifySPK(*bundle.SigningKey, bundle.SignedPreKey.PublicKey, bundle.SignedPreKey.Signature) {
		return nil, ephPriv, ephPub, ErrBadSPK
	}
	ephPriv, ephPub, err = crypto.GenerateX25519()
	if err != nil {
		return nil, ephPriv, ephPub, err
	}
	var opk *domain.X25519Public
	if bundle.PreKey != nil {
		opk = &bundle.PreKey.PublicKey
	}
	root, err = InitiatorRootKey(id.XPriv, ephPriv, bundle.IdentityKey, bundle.SignedPreKey.PublicKey, opk)
	return root, ephPriv, ephPub, err
}

// ResponderRoot recomputes the initiator's root key from our identity, the
// signed pre-key private and, if one was used, the one-time pre-key private.
func ResponderRoot(
	id domain.Identity,
	spkPriv domain.X25519Private,
	opkPriv *domain.X25519Private,
	initiatorIdentity domain.X25519Public,
	baseKey domain.X25519Public,
) ([]byte, error) {
	dh1, err := crypto.DH(spkPriv, initiatorIdentity) // DH(SPKB, IKA)
	if err != nil {
		return nil, err
	}
	dh2, err := crypto.DH(id.XPriv, baseKey) // DH(IKB, EKA)
	if err != nil {
		return nil, err
	}
	dh3, err := crypto.DH(spkPriv, baseKey) // DH(SPKB, EKA)
	if err != nil {
		return nil, err
	}
	transcript := make([]byte, 0, 32*4)
	transcript = append(transcript, dh1[:]...)
	transcript = append(transcript, dh2[:]...)
	transcript = append(transcript, dh3[:]...)
	if opkPriv != nil {
		dh4, err := crypto.DH(*opkPriv, baseKey) // DH(OPKB, EKA)
		if err != nil {
			return nil, err
		}
		transcript = append(transcript, dh4[:]...)
	}
	root := hkdfSHA256(transcript, nil, []byte(infoLabel), 32)
	memzero.Zero(transcript)
	return root, nil
}

const infoLabel = "msgcore-x3dh"

// InitiatorRootKey derives the root key for the initiator using X3DH.
func InitiatorRootKey(
	ourIDPriv domain.X25519Private,
	ourEphPriv domain.X25519Private,
	peerIDPub domain.X25519Public,
	peerSPK domain.X25519Public,
	peerOPK *domain.X25519Public,
) ([]byte, error) {
	dh1, err := crypto.DH(ourIDPriv, peerSPK) // DH(IKA, SPKB)
	if err != nil {
		return nil, err
	}
	dh2, err := crypto.DH(ourEphPriv, peerIDPub) // DH(EKA, IKB)
	if err != nil {
		return nil, err
	}
	dh3, err := crypto.DH(ourEphPriv, peerSPK) // DH(EKA, SPKB)
	if err != nil {
		return nil, err
	}

	dhConcat := make([]byte, 0, 32*4)
	dhConcat = append(dhConcat, dh1[:]...)
	dhConcat = append(dhConcat, dh2[:]...)
	dhConcat = append(dhConcat, dh3[:]...)

	if peerOPK != nil {
		dh4, err := crypto.DH(ourEphPriv, *peerOPK) // DH(EKA, OPKB)
		if err != nil {
			return nil, err
		}
		dhConcat = append(dhConcat, dh4[:]...)
	}

	root := hkdfSHA256(dhConcat, nil, []byte(infoLabel), 32)
	memzero.Zero(dhConcat)
	return root, nil
}

// VerifySPK checks the signed prekey signature.
func VerifySPK(edPub domain.Ed25519Public, spk domain.X25519Public, sig []byte) bool {
	return ed25519.Verify(edPub.Slice(), spk.Slice(), sig)
}

// hkdfSHA256 implements HKDF (RFC 5869) with SHA-256.
func hkdfSHA256(ikm, salt, info []byte, outLen int) []byte {
	if salt == nil {
		salt = make([]byte, sha256.Size)
	}
	prk := hmacSum(salt, ikm)
	var (
		t   []byte
		okm []byte
		cnt byte = 1
	)
	for len(okm) < outLen {
		h := hmac.New(sha256.New, prk)
		h.Write(t)
		h.Write(info)
		h.Write([]byte{cnt})
		t = h.Sum(nil)
		okm = append(okm, t...)
		cnt++
	}
	return okm[:outLen]
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
