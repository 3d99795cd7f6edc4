package cms

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"time"
)

// ContentInfo represents the top-level CMS structure (RFC 5652 Section 3).
type ContentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"explicit,tag:0"`
}

// SignedData represents CMS SignedData (RFC 5652 Section 5).
type SignedData struct {
	Version          int
	DigestAlgorithms []pkix.AlgorithmIdentifier `asn1:"set"`
	EncapContentInfo EncapsulatedContentInfo
	RawCertificates  rawCertificates `asn1:"optional,tag:0"`
	CRLs             []asn1.RawValue `asn1:"optional,set,tag:1"`
	SignerInfos      []SignerInfo    `asn1:"set"`
}

// rawCertificates holds the [0] IMPLICIT CertificateSet bytes verbatim.
type rawCertificates struct {
	Raw asn1.RawContent
}

// EncapsulatedContentInfo represents the content being signed (RFC 5652 Section 5.2).
// Note: EContent is [0] EXPLICIT OCTET STRING - we handle the tagging in the RawValue
// rather than using struct tags, because Go's asn1 doesn't properly apply tags to RawValue.
type EncapsulatedContentInfo struct {
	EContentType asn1.ObjectIdentifier
	EContent     asn1.RawValue `asn1:"optional"`
}

// SignerInfo contains the signature and related info (RFC 5652 Section 5.3).
type SignerInfo struct {
	Version            int
	SID                SignerIdentifier
	DigestAlgorithm    pkix.AlgorithmIdentifier
	SignedAttrs        []Attribute `asn1:"optional,tag:0"`
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Signature          []byte
	UnsignedAttrs      []Attribute `asn1:"optional,tag:1"`
}

// SignerIdentifier identifies the signer's certificate.
type SignerIdentifier struct {
	IssuerAndSerialNumber IssuerAndSerialNumber
}

// IssuerAndSerialNumber identifies a certificate by issuer and serial.
type IssuerAndSerialNumber struct {
	Issuer       asn1.RawValue
	SerialNumber *big.Int
}

// Attribute represents a CMS attribute (RFC 5652 Section 5.3).
type Attribute struct {
	Type   asn1.ObjectIdentifier
	Values []asn1.RawValue `asn1:"set"`
}

// NewAttribute creates a new attribute with a single value.
func NewAttribute(oid asn1.ObjectIdentifier, value interface{}) (Attribute, error) {
	encoded, err := asn1.Marshal(value)
	if err != nil {
		return Attribute{}, err
	}
	return Attribute{
		Type:   oid,
		Values: []asn1.RawValue{{FullBytes: encoded}},
	}, nil
}

// NewContentTypeAttr creates a content-type attribute.
func NewContentTypeAttr(contentType asn1.ObjectIdentifier) (Attribute, error) {
	return NewAttribute(OIDContentType, contentType)
}

// NewMessageDigestAttr creates a message-digest attribute.
func NewMessageDigestAttr(digest []byte) (Attribute, error) {
	return NewAttribute(OIDMessageDigest, digest)
}

// NewSigningTimeAttr creates a signing-time attribute.
func NewSigningTimeAttr(t time.Time) (Attribute, error) {
	return NewAttribute(OIDSigningTime, t.UTC())
}

// MarshalSignedAttrs marshals signed attributes for signing.
// Per RFC 5652, signed attributes must be DER-encoded as a SET OF.
func MarshalSignedAttrs(attrs []Attribute) ([]byte, error) {
	encoded, err := asn1.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	// Replace the SEQUENCE tag (0x30) with SET tag (0x31)
	if len(encoded) > 0 && encoded[0] == 0x30 {
		encoded[0] = 0x31
	}
	return encoded, nil
}

// marshalCertificates builds the [0] IMPLICIT CertificateSet from the given
// certificates. The bytes are used verbatim when the SignedData is marshaled.
func marshalCertificates(certs []*x509.Certificate) (rawCertificates, error) {
	var der []byte
	for _, cert := range certs {
		der = append(der, cert.Raw...)
	}
	wrapped, err := asn1.Marshal(asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        0,
		IsCompound: true,
		Bytes:      der,
	})
	if err != nil {
		return rawCertificates{}, err
	}
	return rawCertificates{Raw: wrapped}, nil
}

// Certificates returns the certificates embedded in the SignedData, in order.
func (sd *SignedData) Certificates() ([]*x509.Certificate, error) {
	if len(sd.RawCertificates.Raw) == 0 {
		return nil, nil
	}
	var wrapper asn1.RawValue
	if _, err := asn1.Unmarshal(sd.RawCertificates.Raw, &wrapper); err != nil {
		return nil, err
	}
	if len(wrapper.Bytes) == 0 {
		return nil, nil
	}
	return x509.ParseCertificates(wrapper.Bytes)
}

// Content returns the encapsulated content bytes, unwrapping the
// [0] EXPLICIT OCTET STRING around the eContent.
func (sd *SignedData) Content() []byte {
	econtent := sd.EncapContentInfo.EContent
	if econtent.Class == asn1.ClassUniversal && econtent.Tag == asn1.TagOctetString {
		// Bare OCTET STRING, no explicit wrapper.
		return econtent.Bytes
	}
	var inner []byte
	if _, err := asn1.Unmarshal(econtent.Bytes, &inner); err == nil {
		return inner
	}
	return econtent.Bytes
}
