package waproto

import (
	"google.golang.org/protobuf/encoding/protowire"

	"msgcore/internal/protocol/wirefmt"
)

// ErrInvalidProtobuf is returned for payloads that are not a well-formed
// protobuf message.
var ErrInvalidProtobuf = wirefmt.ErrMalformed

var walk = wirefmt.Walk

const (
	fieldConversation                 protowire.Number = 1
	fieldSenderKeyDistributionMessage protowire.Number = 2
	fieldExtendedTextMessage          protowire.Number = 6
	fieldDeviceSentMessage            protowire.Number = 31
)

// Message is the application-level message carried inside an encrypted child.
type Message struct {
	Conversation                 string                        `json:"conversation,omitempty"`
	SenderKeyDistributionMessage *SenderKeyDistributionMessage `json:"senderKeyDistributionMessage,omitempty"`
	ExtendedTextMessage          *ExtendedTextMessage          `json:"extendedTextMessage,omitempty"`
	DeviceSentMessage            *DeviceSentMessage            `json:"deviceSentMessage,omitempty"`

	// Unknown holds unmodelled fields in wire form.
	Unknown []byte `json:"-"`
}

// SenderKeyDistributionMessage hands a group's sender key to a new member.
type SenderKeyDistributionMessage struct {
	GroupID                             string `json:"groupId,omitempty"`
	AxolotlSenderKeyDistributionMessage []byte `json:"axolotlSenderKeyDistributionMessage,omitempty"`
}

// ExtendedTextMessage is a text message with optional rich context.
type ExtendedTextMessage struct {
	Text    string `json:"text,omitempty"`
	Unknown []byte `json:"-"`
}

// DeviceSentMessage wraps a message one of our own devices sent to someone else.
type DeviceSentMessage struct {
	DestinationJID string   `json:"destinationJid,omitempty"`
	Message        *Message `json:"message,omitempty"`
	Phash          string   `json:"phash,omitempty"`
}

// Text returns the human-readable body, if any.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	if m.Conversation != "" {
		return m.Conversation
	}
	if m.ExtendedTextMessage != nil {
		return m.ExtendedTextMessage.Text
	}
	return ""
}

// Unwrap returns the inner message of a deviceSentMessage wrapper, or m itself.
func (m *Message) Unwrap() *Message {
	if m != nil && m.DeviceSentMessage != nil && m.DeviceSentMessage.Message != nil {
		return m.DeviceSentMessage.Message
	}
	return m
}

// Merge copies every field set on other onto m. Later parts of a multi-part
// envelope win field by field.
func (m *Message) Merge(other *Message) {
	if other == nil {
		return
	}
	if other.Conversation != "" {
		m.Conversation = other.Conversation
	}
	if other.SenderKeyDistributionMessage != nil {
		m.SenderKeyDistributionMessage = other.SenderKeyDistributionMessage
	}
	if other.ExtendedTextMessage != nil {
		m.ExtendedTextMessage = other.ExtendedTextMessage
	}
	if other.DeviceSentMessage != nil {
		m.DeviceSentMessage = other.DeviceSentMessage
	}
	m.Unknown = append(m.Unknown, other.Unknown...)
}

// Marshal encodes the message.
func (m *Message) Marshal() []byte {
	if m == nil {
		return nil
	}
	var b []byte
	if m.Conversation != "" {
		b = protowire.AppendTag(b, fieldConversation, protowire.BytesType)
		b = protowire.AppendString(b, m.Conversation)
	}
	if m.SenderKeyDistributionMessage != nil {
		b = protowire.AppendTag(b, fieldSenderKeyDistributionMessage, protowire.BytesType)
		b = protowire.AppendBytes(b, m.SenderKeyDistributionMessage.Marshal())
	}
	if m.ExtendedTextMessage != nil {
		b = protowire.AppendTag(b, fieldExtendedTextMessage, protowire.BytesType)
		b = protowire.AppendBytes(b, m.ExtendedTextMessage.Marshal())
	}
	if m.DeviceSentMessage != nil {
		b = protowire.AppendTag(b, fieldDeviceSentMessage, protowire.BytesType)
		b = protowire.AppendBytes(b, m.DeviceSentMessage.Marshal())
	}
	return append(b, m.Unknown...)
}

// UnmarshalMessage decodes a Message.
func UnmarshalMessage(b []byte) (*Message, error) {
	m := &Message{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, raw []byte) error {
		switch {
		case num == fieldConversation && typ == protowire.BytesType:
			m.Conversation = string(v)
		case num == fieldSenderKeyDistributionMessage && typ == protowire.BytesType:
			skdm, err := UnmarshalSenderKeyDistributionMessage(v)
			if err != nil {
				return err
			}
			m.SenderKeyDistributionMessage = skdm
		case num == fieldExtendedTextMessage && typ == protowire.BytesType:
			etm, err := unmarshalExtendedTextMessage(v)
			if err != nil {
				return err
			}
			m.ExtendedTextMessage = etm
		case num == fieldDeviceSentMessage && typ == protowire.BytesType:
			dsm, err := unmarshalDeviceSentMessage(v)
			if err != nil {
				return err
			}
			m.DeviceSentMessage = dsm
		default:
			m.Unknown = append(m.Unknown, raw...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal encodes the distribution message.
func (s *SenderKeyDistributionMessage) Marshal() []byte {
	var b []byte
	if s.GroupID != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, s.GroupID)
	}
	if len(s.AxolotlSenderKeyDistributionMessage) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, s.AxolotlSenderKeyDistributionMessage)
	}
	return b
}

// UnmarshalSenderKeyDistributionMessage decodes a SenderKeyDistributionMessage.
func UnmarshalSenderKeyDistributionMessage(b []byte) (*SenderKeyDistributionMessage, error) {
	s := &SenderKeyDistributionMessage{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1:
			s.GroupID = string(v)
		case 2:
			s.AxolotlSenderKeyDistributionMessage = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Marshal encodes the extended text message.
func (e *ExtendedTextMessage) Marshal() []byte {
	var b []byte
	if e.Text != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, e.Text)
	}
	return append(b, e.Unknown...)
}

func unmarshalExtendedTextMessage(b []byte) (*ExtendedTextMessage, error) {
	e := &ExtendedTextMessage{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, raw []byte) error {
		if num == 1 && typ == protowire.BytesType {
			e.Text = string(v)
			return nil
		}
		e.Unknown = append(e.Unknown, raw...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Marshal encodes the wrapper.
func (d *DeviceSentMessage) Marshal() []byte {
	var b []byte
	if d.DestinationJID != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, d.DestinationJID)
	}
	if d.Message != nil {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, d.Message.Marshal())
	}
	if d.Phash != "" {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, d.Phash)
	}
	return b
}

func unmarshalDeviceSentMessage(b []byte) (*DeviceSentMessage, error) {
	d := &DeviceSentMessage{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1:
			d.DestinationJID = string(v)
		case 2:
			inner, err := UnmarshalMessage(v)
			if err != nil {
				return err
			}
			d.Message = inner
		case 3:
			d.Phash = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
