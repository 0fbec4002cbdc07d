package decode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"msgcore/internal/domain"
	"msgcore/internal/domain/types"
	"msgcore/internal/jid"
	"msgcore/internal/waproto"
)

const (
	tagEnc          = "enc"
	tagPlaintext    = "plaintext"
	tagVerifiedName = "verified_name"
	tagUnavailable  = "unavailable"

	kindPlaintext = "plaintext"
)

// ErrUnknownCiphertextKind fails one child whose type is not understood.
var ErrUnknownCiphertextKind = errors.New("unknown e2e type")

// sessionRecordErrors are matched case-insensitively against a child's
// error text.
var sessionRecordErrors = []string{
	"no session record",
}

// IsSessionRecordError reports whether err means the session is missing, as
// opposed to a corrupt message or a consumed pre-key.
func IsSessionRecordError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range sessionRecordErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// childResult is the outcome of one decryptable child.
type childResult interface{ isChildResult() }

type decrypted struct{ msg *waproto.Message }

type stub struct {
	kind string
	err  error
}

func (decrypted) isChildResult() {}
func (stub) isChildResult()      {}

// Decrypt walks node's children and fills cls.Message. It never fails:
// per-child problems become a CIPHERTEXT stub on the message.
func (d *Decoder) Decrypt(ctx context.Context, node domain.Node, cls Classification) *domain.WebMessage {
	msg := cls.Message
	decryptables := 0

	for _, child := range node.Children {
		switch child.Tag {
		case tagVerifiedName:
			if len(child.Content) > 0 {
				name, err := waproto.VerifiedName(child.Content)
				if err != nil {
					d.log.WithError(err).WithField("id", msg.Key.ID).Debug("decode: bad verified name certificate")
				} else {
					msg.VerifiedBizName = name
				}
			}
		case tagUnavailable:
			if child.Attr("type") == "view_once" {
				msg.Key.IsViewOnce = true
			}
		case tagEnc:
			if c := child.Attr("count"); c != "" {
				if n, err := strconv.Atoi(c); err == nil {
					msg.RetryCount = n
				}
			}
		}

		if child.Tag != tagEnc && child.Tag != tagPlaintext {
			continue
		}
		if len(child.Content) == 0 {
			continue
		}
		decryptables++

		switch res := d.decryptChild(ctx, child, cls).(type) {
		case decrypted:
			if msg.Message == nil {
				msg.Message = res.msg
			} else {
				msg.Message.Merge(res.msg)
			}
		case stub:
			sessionErr := IsSessionRecordError(res.err)
			d.log.WithError(res.err).WithFields(logrus.Fields{
				"id":                   msg.Key.ID,
				"chat":                 msg.Key.RemoteJID,
				"type":                 res.kind,
				"sender":               cls.Sender,
				"author":               cls.Author,
				"session_record_error": sessionErr,
			}).Error("decode: failed to decrypt message")
			msg.StubType = types.StubCiphertext
			msg.StubParameters = []string{res.err.Error()}
			msg.SessionRecordError = sessionErr
		}
	}

	if decryptables == 0 && !msg.Key.IsViewOnce {
		msg.StubType = types.StubCiphertext
		msg.StubParameters = []string{types.StubParamNoMessageFound}
	}
	return msg
}

func (d *Decoder) decryptChild(ctx context.Context, child domain.Node, cls Classification) childResult {
	kind := kindPlaintext
	if child.Tag != tagPlaintext {
		kind = child.Attr("type")
	}

	decryptionJID := d.decryptionJID(cls.WireSender)

	var (
		buf []byte
		err error
	)
	switch domain.CiphertextKind(kind) {
	case domain.CiphertextGroup:
		buf, err = d.repo.DecryptGroupMessage(ctx, domain.GroupDecryptRequest{
			Group:     cls.Sender,
			AuthorJID: cls.Author,
			Msg:       child.Content,
		})
	case domain.CiphertextPreKey, domain.CiphertextOngoing:
		buf, err = d.repo.DecryptMessage(ctx, domain.DecryptRequest{
			JID:        decryptionJID,
			Kind:       domain.CiphertextKind(kind),
			Ciphertext: child.Content,
		})
	case kindPlaintext:
		buf = child.Content
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCiphertextKind, kind)
	}
	if kind != kindPlaintext {
		d.metrics.ObserveDecrypt(kind, err)
	}
	if err != nil {
		return stub{kind: kind, err: err}
	}

	if kind != kindPlaintext {
		d.learnFromEnvelope(ctx, cls, decryptionJID)
		if buf, err = waproto.UnpadRandomMax16(buf); err != nil {
			return stub{kind: kind, err: err}
		}
	}
	m, err := waproto.UnmarshalMessage(buf)
	if err != nil {
		return stub{kind: kind, err: err}
	}
	m = m.Unwrap()

	if skdm := m.SenderKeyDistributionMessage; skdm != nil {
		err := d.repo.ProcessSenderKeyDistribution(ctx, domain.SenderKeyDistributionRequest{
			GroupID:   skdm.GroupID,
			AuthorJID: cls.Author,
			Payload:   skdm.AxolotlSenderKeyDistributionMessage,
		})
		if err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"id":     cls.Message.Key.ID,
				"author": cls.Author,
			}).Error("decode: failed to process sender key distribution message")
		}
	}
	return decrypted{msg: m}
}

// decryptionJID prefers the LID session: a LID sender is used as is, a PN
// sender is swapped for its known LID.
func (d *Decoder) decryptionJID(sender string) string {
	if jid.IsAnyLID(sender) {
		return sender
	}
	if lid, ok := d.repo.LIDMapping().LIDForPN(sender); ok {
		return lid
	}
	return sender
}

// learnFromEnvelope stores the LID hint of a PN-addressed sender and copies
// its session over. It runs after a successful decrypt, so the PN session it
// copies exists (a pkmsg has just created it). It only runs while no LID is
// known for the sender, so an already migrated contact is never migrated
// again.
func (d *Decoder) learnFromEnvelope(ctx context.Context, cls Classification, decryptionJID string) {
	sender, alt := cls.WireSender, cls.Addressing.SenderAlt
	if decryptionJID != sender || alt == "" || !jid.IsLIDUser(alt) || !jid.IsPNUser(sender) {
		return
	}
	d.repo.LIDMapping().StoreMany(ctx, []domain.LIDMapping{{LID: alt, PN: sender}})
	res, err := d.repo.MigrateSession(ctx, sender, alt)
	fields := logrus.Fields{"pn": sender, "lid": alt}
	if err != nil {
		d.log.WithError(err).WithFields(fields).Warn("decode: session migration failed")
		return
	}
	fields["migrated"] = res.Migrated
	d.log.WithFields(fields).Debug("decode: stored LID mapping from envelope")
}
