// Package addressing extracts the alternate-namespace identity hints that
// every message envelope opportunistically carries.
package addressing

import (
	"strings"

	"msgcore/internal/domain"
)

// Resolve computes the addressing context of one envelope. The mode is the
// explicit addressing_mode attribute, else LID when the sender ends in "lid",
// else PN. The sender alternate is taken from the opposite namespace.
func Resolve(attrs domain.MessageAttrs) domain.AddressingContext {
	mode := attrs.AddressingMode
	if mode == "" {
		mode = domain.AddressingPN
		if strings.HasSuffix(attrs.Sender(), "lid") {
			mode = domain.AddressingLID
		}
	}

	ctx := domain.AddressingContext{Mode: mode}
	if mode == domain.AddressingLID {
		ctx.SenderAlt = firstOf(attrs.ParticipantPN, attrs.SenderPN, attrs.PeerRecipientPN)
		ctx.RecipientAlt = attrs.RecipientPN
	} else {
		ctx.SenderAlt = firstOf(attrs.ParticipantLID, attrs.SenderLID, attrs.PeerRecipientLID)
		ctx.RecipientAlt = attrs.RecipientLID
	}
	return ctx
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
