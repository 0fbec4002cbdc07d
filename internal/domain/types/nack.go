package types

import "strconv"

// NackReason is the numeric code returned to the network peer when an
// envelope is rejected. The values are part of the wire contract.
type NackReason int

const (
	NackParsingError                 NackReason = 487
	NackUnrecognizedStanza           NackReason = 488
	NackUnrecognizedStanzaClass      NackReason = 489
	NackUnrecognizedStanzaType       NackReason = 490
	NackInvalidProtobuf              NackReason = 491
	NackInvalidHostedCompanionStanza NackReason = 493
	NackMissingMessageSecret         NackReason = 495
	NackSignalErrorOldCounter        NackReason = 496
	NackMessageDeletedOnPeer         NackReason = 499
	NackUnhandledError               NackReason = 500
	NackUnsupportedAdminRevoke       NackReason = 550
	NackUnsupportedLIDGroup          NackReason = 551
	NackDBOperationFailed            NackReason = 552
)

var nackNames = map[NackReason]string{
	NackParsingError:                 "ParsingError",
	NackUnrecognizedStanza:           "UnrecognizedStanza",
	NackUnrecognizedStanzaClass:      "UnrecognizedStanzaClass",
	NackUnrecognizedStanzaType:       "UnrecognizedStanzaType",
	NackInvalidProtobuf:              "InvalidProtobuf",
	NackInvalidHostedCompanionStanza: "InvalidHostedCompanionStanza",
	NackMissingMessageSecret:         "MissingMessageSecret",
	NackSignalErrorOldCounter:        "SignalErrorOldCounter",
	NackMessageDeletedOnPeer:         "MessageDeletedOnPeer",
	NackUnhandledError:               "UnhandledError",
	NackUnsupportedAdminRevoke:       "UnsupportedAdminRevoke",
	NackUnsupportedLIDGroup:          "UnsupportedLIDGroup",
	NackDBOperationFailed:            "DBOperationFailed",
}

func (r NackReason) String() string {
	if n, ok := nackNames[r]; ok {
		return n
	}
	return "NackReason(" + strconv.Itoa(int(r)) + ")"
}
