package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMissingAttr is returned when a required envelope attribute is absent.
var ErrMissingAttr = errors.New("missing required attribute")

// Node is one element of a parsed wire envelope. A node carries either
// binary Content or Children, never both.
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Content  []byte            `json:"content,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// Attr returns the attribute value or "".
func (n Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Child returns the first child with the given tag.
func (n Node) Child(tag string) (Node, bool) {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c, true
		}
	}
	return Node{}, false
}

// MessageAttrs is the typed view of a message envelope's attributes.
type MessageAttrs struct {
	ID               string
	From             string
	Participant      string
	Recipient        string
	AddressingMode   AddressingMode
	ParticipantPN    string
	ParticipantLID   string
	SenderPN         string
	SenderLID        string
	PeerRecipientPN  string
	PeerRecipientLID string
	RecipientPN      string
	RecipientLID     string
	Notify           string
	Category         string
	Timestamp        int64
}

// Sender is the participant for group-shaped envelopes, otherwise from.
func (a MessageAttrs) Sender() string {
	if a.Participant != "" {
		return a.Participant
	}
	return a.From
}

// ParseMessageAttrs validates and copies the attributes of a message node.
func ParseMessageAttrs(attrs map[string]string) (MessageAttrs, error) {
	get := func(k string) string { return attrs[k] }
	a := MessageAttrs{
		ID:               get("id"),
		From:             get("from"),
		Participant:      get("participant"),
		Recipient:        get("recipient"),
		AddressingMode:   AddressingMode(get("addressing_mode")),
		ParticipantPN:    get("participant_pn"),
		ParticipantLID:   get("participant_lid"),
		SenderPN:         get("sender_pn"),
		SenderLID:        get("sender_lid"),
		PeerRecipientPN:  get("peer_recipient_pn"),
		PeerRecipientLID: get("peer_recipient_lid"),
		RecipientPN:      get("recipient_pn"),
		RecipientLID:     get("recipient_lid"),
		Notify:           get("notify"),
		Category:         get("category"),
	}
	if a.From == "" {
		return a, fmt.Errorf("%w: from", ErrMissingAttr)
	}
	switch a.AddressingMode {
	case "", AddressingLID, AddressingPN:
	default:
		return a, fmt.Errorf("invalid addressing_mode %q", a.AddressingMode)
	}
	if t := get("t"); t != "" {
		ts, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return a, fmt.Errorf("invalid timestamp %q: %w", t, err)
		}
		a.Timestamp = ts
	}
	return a, nil
}
