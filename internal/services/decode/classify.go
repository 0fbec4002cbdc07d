package decode

import (
	"errors"
	"fmt"

	"msgcore/internal/addressing"
	"msgcore/internal/domain"
	"msgcore/internal/domain/types"
	"msgcore/internal/jid"
)

var (
	ErrNoParticipant    = errors.New("no participant in group message")
	ErrRecipientNotSelf = errors.New("recipient present, but message not from me")
	ErrUnknownChat      = errors.New("unknown message type")
)

// FatalDecodeError rejects a whole envelope. Reason is the NACK code to
// answer the peer with.
type FatalDecodeError struct {
	Reason domain.NackReason
	Err    error
}

func (e *FatalDecodeError) Error() string {
	return fmt.Sprintf("decode: %v (nack %d %s)", e.Err, int(e.Reason), e.Reason)
}

func (e *FatalDecodeError) Unwrap() error { return e.Err }

func fatal(reason domain.NackReason, err error) error {
	return &FatalDecodeError{Reason: reason, Err: err}
}

// MessageType is the finer envelope class recorded for callers.
type MessageType string

const (
	TypeChat             MessageType = "chat"
	TypeGroup            MessageType = "group"
	TypeDirectPeerStatus MessageType = "direct_peer_status"
	TypeOtherStatus      MessageType = "other_status"
	TypePeerBroadcast    MessageType = "peer_broadcast"
	TypeOtherBroadcast   MessageType = "other_broadcast"
	TypeNewsletter       MessageType = "newsletter"
)

// Classification is the result of Classify.
type Classification struct {
	Message *domain.WebMessage
	Type    MessageType
	// Author is who wrote the message, in LID form whenever a LID is known.
	Author string
	// Sender keys cryptographic lookups: the author for direct chats, the
	// chat for everything else.
	Sender string
	// WireSender is the participant as it appeared on the wire, else from.
	// A broadcast that only names participant_lid uses that.
	WireSender string
	Addressing domain.AddressingContext
	// Seed is a PN->LID pair to remember if none is known yet.
	Seed *domain.LIDMapping
}

// Classify resolves chat, author and crypto key of an envelope.
func Classify(node domain.Node, meID, meLID string) (Classification, error) {
	attrs, err := types.ParseMessageAttrs(node.Attrs)
	if err != nil {
		return Classification{}, fatal(types.NackParsingError, err)
	}

	wire := attrs.Sender()
	if jid.IsBroadcast(attrs.From) && attrs.Participant == "" {
		wire = attrs.ParticipantLID
	}
	isMe := func(j string) bool { return jid.SameUser(j, meID) }
	isMeLID := func(j string) bool { return jid.SameUser(j, meLID) }
	fromMe := isMe(wire)
	if jid.IsLIDUser(attrs.From) || jid.IsLIDUser(wire) {
		fromMe = isMeLID(wire)
	}

	var (
		typ    MessageType
		chat   string
		author string
		seed   *domain.LIDMapping
	)
	switch jid.Kind(attrs.From) {
	case jid.ChatDirect:
		chat = attrs.From
		if attrs.Recipient != "" && !jid.IsMetaAI(attrs.Recipient) {
			if !isMe(attrs.From) && !isMeLID(attrs.From) {
				return Classification{}, fatal(types.NackUnrecognizedStanza, ErrRecipientNotSelf)
			}
			chat = attrs.Recipient
		}
		typ = TypeChat
		author = resolveAuthor(attrs.From, attrs.SenderLID, fromMe, meLID)
		if attrs.SenderLID != "" && attrs.SenderPN != "" {
			seed = &domain.LIDMapping{LID: jid.Normalize(attrs.SenderLID), PN: jid.Normalize(attrs.SenderPN)}
		}

	case jid.ChatGroup:
		if attrs.Participant == "" {
			return Classification{}, fatal(types.NackParsingError, ErrNoParticipant)
		}
		typ = TypeGroup
		chat = attrs.From
		author = resolveAuthor(attrs.Participant, attrs.ParticipantLID, fromMe, meLID)

	case jid.ChatBroadcast:
		if attrs.Participant == "" && attrs.ParticipantLID == "" {
			return Classification{}, fatal(types.NackParsingError, ErrNoParticipant)
		}
		participantMe := isMe(attrs.Participant) || isMeLID(attrs.ParticipantLID)
		switch {
		case jid.IsStatusBroadcast(attrs.From) && participantMe:
			typ = TypeDirectPeerStatus
		case jid.IsStatusBroadcast(attrs.From):
			typ = TypeOtherStatus
		case participantMe:
			typ = TypePeerBroadcast
		default:
			typ = TypeOtherBroadcast
		}
		chat = attrs.From
		author = attrs.ParticipantLID
		if author == "" {
			author = attrs.Participant
		}

	case jid.ChatNewsletter:
		typ = TypeNewsletter
		chat = attrs.From
		author = attrs.From

	case jid.ChatUnknown:
		return Classification{}, fatal(types.NackUnrecognizedStanza, fmt.Errorf("%w: %q", ErrUnknownChat, attrs.From))
	}

	msg := &domain.WebMessage{
		Key: domain.MessageKey{
			RemoteJID:        chat,
			FromMe:           fromMe,
			ID:               attrs.ID,
			Participant:      attrs.Participant,
			ParticipantPN:    attrs.ParticipantPN,
			ParticipantLID:   attrs.ParticipantLID,
			SenderPN:         attrs.SenderPN,
			SenderLID:        attrs.SenderLID,
			PeerRecipientPN:  attrs.PeerRecipientPN,
			PeerRecipientLID: attrs.PeerRecipientLID,
		},
		Timestamp: attrs.Timestamp,
		PushName:  attrs.Notify,
		Broadcast: jid.IsBroadcast(attrs.From),
		Category:  attrs.Category,
	}
	if fromMe {
		msg.Status = types.StatusServerAck
	}

	sender := chat
	if typ == TypeChat {
		sender = author
	}
	return Classification{
		Message:    msg,
		Type:       typ,
		Author:     author,
		Sender:     sender,
		WireSender: wire,
		Addressing: addressing.Resolve(attrs),
		Seed:       seed,
	}, nil
}

// resolveAuthor canonicalises the author to LID form. Our own messages use
// our LID; others use their LID hint. The device always comes from the
// observed sender.
func resolveAuthor(observed, lidHint string, fromMe bool, meLID string) string {
	device := jid.Device(observed)
	switch {
	case fromMe && meLID != "":
		return jid.Encode(jid.User(meLID), jid.ServerLID, device, 0)
	case !fromMe && lidHint != "":
		return jid.Encode(jid.User(lidHint), jid.ServerLID, device, 0)
	}
	return observed
}
