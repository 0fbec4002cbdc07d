package jid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"msgcore/internal/domain"
)

// Well-known servers.
const (
	ServerPN         = "s.whatsapp.net"
	ServerLegacy     = "c.us"
	ServerLID        = "lid"
	ServerHosted     = "hosted"
	ServerHostedLID  = "hosted.lid"
	ServerGroup      = "g.us"
	ServerBroadcast  = "broadcast"
	ServerNewsletter = "newsletter"
	ServerBot        = "bot"

	StatusBroadcast = "status@broadcast"
)

// ErrInvalidJID is returned when a string cannot be parsed as a JID.
var ErrInvalidJID = errors.New("invalid jid")

// DomainKind is the addressing domain of a JID.
type DomainKind int

const (
	DomainWhatsApp DomainKind = iota
	DomainLID
	DomainHosted
	DomainHostedLID
	// DomainNumeric carries an explicit numeric domain type in JID.Agent.
	DomainNumeric
)

func (d DomainKind) String() string {
	switch d {
	case DomainWhatsApp:
		return "whatsapp"
	case DomainLID:
		return "lid"
	case DomainHosted:
		return "hosted"
	case DomainHostedLID:
		return "hosted.lid"
	case DomainNumeric:
		return "numeric"
	}
	return "DomainKind(" + strconv.Itoa(int(d)) + ")"
}

// JID is a decoded identifier. Zero Device and Agent mean absent.
type JID struct {
	User   string
	Server string
	Domain DomainKind
	Device uint16
	Agent  uint8
}

// String re-encodes the JID.
func (j JID) String() string {
	return Encode(j.User, j.Server, j.Device, j.Agent)
}

// Encode builds "user[_agent][:device]@server". Zero agent and device are
// omitted.
func Encode(user, server string, device uint16, agent uint8) string {
	var b strings.Builder
	b.Grow(len(user) + len(server) + 8)
	b.WriteString(user)
	if agent != 0 {
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(int(agent)))
	}
	if device != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(device)))
	}
	b.WriteByte('@')
	b.WriteString(server)
	return b.String()
}

// Parse decodes s. It reports false when s has no '@' separator or a
// malformed device.
func Parse(s string) (JID, bool) {
	at := strings.IndexByte(s, '@')
	if at < 0 {
		return JID{}, false
	}
	j := JID{Server: s[at+1:]}
	userAgent, device, hasDevice := strings.Cut(s[:at], ":")
	user, agent, hasAgent := strings.Cut(userAgent, "_")
	j.User = user

	if hasDevice && device != "" {
		d, err := strconv.ParseUint(device, 10, 16)
		if err != nil {
			return JID{}, false
		}
		j.Device = uint16(d)
	}

	switch j.Server {
	case ServerLID:
		j.Domain = DomainLID
	case ServerHosted:
		j.Domain = DomainHosted
	case ServerHostedLID:
		j.Domain = DomainHostedLID
	default:
		j.Domain = DomainWhatsApp
		if hasAgent && agent != "" {
			if a, err := strconv.ParseUint(agent, 10, 8); err == nil {
				j.Domain = DomainNumeric
				j.Agent = uint8(a)
			}
		}
	}
	return j, true
}

// MustParse is Parse for constants in tests and fixtures.
func MustParse(s string) JID {
	j, ok := Parse(s)
	if !ok {
		panic(fmt.Sprintf("%v: %q", ErrInvalidJID, s))
	}
	return j
}

// ToAddress derives the session address: user plus device (default 0).
func ToAddress(s string) (domain.ProtocolAddress, error) {
	j, ok := Parse(s)
	if !ok || j.User == "" {
		return domain.ProtocolAddress{}, fmt.Errorf("%w: %q", ErrInvalidJID, s)
	}
	return domain.ProtocolAddress{Name: j.User, DeviceID: uint32(j.Device)}, nil
}

// Device returns the device id of s, 0 when absent or undecodable.
func Device(s string) uint16 {
	j, _ := Parse(s)
	return j.Device
}

// User returns the user part of s, "" when undecodable.
func User(s string) string {
	j, _ := Parse(s)
	return j.User
}

// Suffix predicates work on the raw string and never decode.
func IsPNUser(s string) bool          { return strings.HasSuffix(s, "@"+ServerPN) }
func IsLIDUser(s string) bool         { return strings.HasSuffix(s, "@"+ServerLID) }
func IsHostedPNUser(s string) bool    { return strings.HasSuffix(s, "@"+ServerHosted) }
func IsHostedLIDUser(s string) bool   { return strings.HasSuffix(s, "@"+ServerHostedLID) }
func IsGroup(s string) bool           { return strings.HasSuffix(s, "@"+ServerGroup) }
func IsBroadcast(s string) bool       { return strings.HasSuffix(s, "@"+ServerBroadcast) }
func IsStatusBroadcast(s string) bool { return s == StatusBroadcast }
func IsNewsletter(s string) bool      { return strings.HasSuffix(s, "@"+ServerNewsletter) }

// IsMetaAI reports the assistant recipient.
func IsMetaAI(s string) bool { return strings.HasSuffix(s, "@"+ServerBot) }

var botUser = regexp.MustCompile(`^1313555\d{4}$|^131655500\d{2}$`)

// IsBot reports bot accounts, either on the bot server or by their
// reserved legacy numbers.
func IsBot(s string) bool {
	if IsMetaAI(s) {
		return true
	}
	user, _, _ := strings.Cut(s, "@")
	return botUser.MatchString(user) && strings.HasSuffix(s, "@"+ServerLegacy)
}

// IsAnyLID reports LID or hosted LID.
func IsAnyLID(s string) bool { return IsLIDUser(s) || IsHostedLIDUser(s) }

// IsAnyPN reports PN or hosted PN.
func IsAnyPN(s string) bool { return IsPNUser(s) || IsHostedPNUser(s) }

// ChatKind is the envelope class derived from its sender.
type ChatKind int

const (
	ChatUnknown ChatKind = iota
	ChatDirect
	ChatGroup
	ChatBroadcast
	ChatNewsletter
)

func (k ChatKind) String() string {
	switch k {
	case ChatDirect:
		return "direct"
	case ChatGroup:
		return "group"
	case ChatBroadcast:
		return "broadcast"
	case ChatNewsletter:
		return "newsletter"
	}
	return "unknown"
}

// Kind classifies s once so callers can switch on the result.
func Kind(s string) ChatKind {
	switch {
	case IsPNUser(s), IsLIDUser(s):
		return ChatDirect
	case IsGroup(s):
		return ChatGroup
	case IsBroadcast(s):
		return ChatBroadcast
	case IsNewsletter(s):
		return ChatNewsletter
	}
	return ChatUnknown
}

// SameUser compares only the user part; server and device are ignored.
// Two undecodable strings are not the same user.
func SameUser(a, b string) bool {
	ja, okA := Parse(a)
	jb, okB := Parse(b)
	if !okA || !okB {
		return false
	}
	return ja.User == jb.User
}

// Normalize drops the device and maps the legacy c.us server. It returns ""
// when s cannot be decoded.
func Normalize(s string) string {
	j, ok := Parse(s)
	if !ok {
		return ""
	}
	server := j.Server
	if server == ServerLegacy {
		server = ServerPN
	}
	return Encode(j.User, server, 0, 0)
}

// TransferDevice returns to's user and server with from's device.
func TransferDevice(from, to string) string {
	device := Device(from)
	t, ok := Parse(to)
	if !ok {
		return to
	}
	return Encode(t.User, t.Server, device, 0)
}
