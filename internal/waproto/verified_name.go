package waproto

import "google.golang.org/protobuf/encoding/protowire"

// VerifiedNameCertificate is attached to messages from verified businesses.
type VerifiedNameCertificate struct {
	Details   []byte
	Signature []byte
}

// VerifiedNameDetails is the signed payload of a certificate.
type VerifiedNameDetails struct {
	Serial       uint64
	Issuer       string
	VerifiedName string
}

// Marshal encodes the certificate.
func (c *VerifiedNameCertificate) Marshal() []byte {
	var b []byte
	if len(c.Details) > 0 {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, c.Details)
	}
	if len(c.Signature) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, c.Signature)
	}
	return b
}

// UnmarshalVerifiedNameCertificate decodes a certificate.
func UnmarshalVerifiedNameCertificate(b []byte) (*VerifiedNameCertificate, error) {
	c := &VerifiedNameCertificate{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1:
			c.Details = append([]byte(nil), v...)
		case 2:
			c.Signature = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Marshal encodes the details.
func (d *VerifiedNameDetails) Marshal() []byte {
	var b []byte
	if d.Serial != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, d.Serial)
	}
	if d.Issuer != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, d.Issuer)
	}
	if d.VerifiedName != "" {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendString(b, d.VerifiedName)
	}
	return b
}

// UnmarshalVerifiedNameDetails decodes the details.
func UnmarshalVerifiedNameDetails(b []byte) (*VerifiedNameDetails, error) {
	d := &VerifiedNameDetails{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		switch {
		case num == 1 && typ == protowire.VarintType:
			s, _ := protowire.ConsumeVarint(v)
			d.Serial = s
		case num == 2 && typ == protowire.BytesType:
			d.Issuer = string(v)
		case num == 4 && typ == protowire.BytesType:
			d.VerifiedName = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// VerifiedName decodes a certificate and returns the business name it
// carries.
func VerifiedName(cert []byte) (string, error) {
	c, err := UnmarshalVerifiedNameCertificate(cert)
	if err != nil {
		return "", err
	}
	d, err := UnmarshalVerifiedNameDetails(c.Details)
	if err != nil {
		return "", err
	}
	return d.VerifiedName, nil
}
