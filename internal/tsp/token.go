package tsp

import (
	"bytes"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"

	"github.com/remiblancher/qtsa/internal/cms"
)

// TSTInfo represents the timestamp token info (RFC 3161 Section 2.4.2).
type TSTInfo struct {
	Version        int
	Policy         asn1.ObjectIdentifier
	MessageImprint MessageImprint
	SerialNumber   *big.Int
	GenTime        time.Time        `asn1:"generalized"`
	Accuracy       Accuracy         `asn1:"optional"`
	Ordering       bool             `asn1:"optional,default:false"`
	Nonce          *big.Int         `asn1:"optional"`
	TSA            asn1.RawValue    `asn1:"optional,tag:0"`
	Extensions     []pkix.Extension `asn1:"optional,tag:1"`
}

// Accuracy represents the accuracy of the timestamp (RFC 3161 Section 2.4.2).
type Accuracy struct {
	Seconds int `asn1:"optional"`
	Millis  int `asn1:"optional,tag:0"`
	Micros  int `asn1:"optional,tag:1"`
}

// IsZero returns true if the accuracy is zero.
func (a Accuracy) IsZero() bool {
	return a.Seconds == 0 && a.Millis == 0 && a.Micros == 0
}

// Token is the in-memory model of a timestamp response: the PKI status and,
// for granted responses, the parsed TSTInfo together with the raw CMS
// SignedData container that backs it.
type Token struct {
	Status     int
	StatusText []string
	FailInfo   asn1.BitString

	// Info is the parsed token content; nil for non-granted responses.
	Info *TSTInfo

	// SignerCert is the TSA certificate embedded in the container, if the
	// request asked for certificate inclusion and the TSA honored it.
	SignerCert *x509.Certificate

	// SignedData is the raw CMS container, kept for re-verification and
	// certificate enumeration.
	SignedData []byte
}

// IsGranted returns true if the response indicates success.
func (t *Token) IsGranted() bool {
	return t.Status == StatusGranted || t.Status == StatusGrantedWithMods
}

// GenTime returns the generation time of the token.
func (t *Token) GenTime() time.Time {
	if t.Info == nil {
		return time.Time{}
	}
	return t.Info.GenTime
}

// SerialNumber returns the serial number of the token.
func (t *Token) SerialNumber() *big.Int {
	if t.Info == nil {
		return nil
	}
	return t.Info.SerialNumber
}

// PolicyID returns the policy of the token as a dotted OID string, or "".
func (t *Token) PolicyID() string {
	if t.Info == nil || len(t.Info.Policy) == 0 {
		return ""
	}
	return t.Info.Policy.String()
}

// Nonce returns the echoed nonce, or nil.
func (t *Token) Nonce() *big.Int {
	if t.Info == nil {
		return nil
	}
	return t.Info.Nonce
}

// HashAlgorithm returns the digest algorithm of the message imprint.
func (t *Token) HashAlgorithm() (DigestAlgorithm, error) {
	if t.Info == nil {
		return DigestAlgorithm{}, timestampErr("token", ErrInvalidToken)
	}
	return digestAlgorithmByOID(t.Info.MessageImprint.HashAlgorithm.Algorithm)
}

// MessageImprint returns the hashed message from the message imprint.
func (t *Token) MessageImprint() []byte {
	if t.Info == nil {
		return nil
	}
	return bytes.Clone(t.Info.MessageImprint.HashedMessage)
}

// FailureString returns a human-readable failure reason, or "" for a
// granted token.
func (t *Token) FailureString() string {
	if bit := firstFailureBit(t.FailInfo); bit >= 0 {
		return FailureText(bit)
	}
	if len(t.StatusText) > 0 {
		return t.StatusText[0]
	}
	return ""
}

// Certificates returns all certificates embedded in the signed container.
func (t *Token) Certificates() ([]*x509.Certificate, error) {
	if len(t.SignedData) == 0 {
		return nil, nil
	}
	sd, err := cms.ParseSignedData(t.SignedData)
	if err != nil {
		return nil, err
	}
	return sd.Certificates()
}

// Marshal encodes the token as a DER TimeStampResp.
func (t *Token) Marshal() ([]byte, error) {
	resp := TimeStampResp{
		Status: PKIStatusInfo{
			Status:       t.Status,
			StatusString: t.StatusText,
			FailInfo:     t.FailInfo,
		},
	}
	if t.IsGranted() {
		if len(t.SignedData) == 0 {
			return nil, timestampErr("token", ErrInvalidToken)
		}
		resp.TimeStampToken = asn1.RawValue{FullBytes: t.SignedData}
	}
	return asn1.Marshal(resp)
}

// ParseToken parses a DER-encoded TimeStampResp.
func ParseToken(data []byte) (*Token, error) {
	var resp TimeStampResp
	rest, err := asn1.Unmarshal(data, &resp)
	if err != nil {
		return nil, timestampErr("parse", fmt.Errorf("failed to parse TimeStampResp: %w", err))
	}
	if len(rest) > 0 {
		return nil, timestampErr("parse", fmt.Errorf("trailing data after TimeStampResp"))
	}

	token := &Token{
		Status:     resp.Status.Status,
		StatusText: resp.Status.StatusString,
		FailInfo:   resp.Status.FailInfo,
	}

	if len(resp.TimeStampToken.FullBytes) == 0 {
		return token, nil
	}

	if err := token.parseContainer(resp.TimeStampToken.FullBytes); err != nil {
		return nil, err
	}
	return token, nil
}

// parseContainer parses the CMS SignedData carrying the TSTInfo and fills in
// Info, SignerCert and SignedData.
func (t *Token) parseContainer(der []byte) error {
	sd, err := cms.ParseSignedData(der)
	if err != nil {
		return timestampErr("parse", err)
	}

	if !sd.EncapContentInfo.EContentType.Equal(cms.OIDTSTInfo) {
		return timestampErr("parse", fmt.Errorf("unexpected encapsulated content type: %v",
			sd.EncapContentInfo.EContentType))
	}

	var info TSTInfo
	if _, err := asn1.Unmarshal(sd.Content(), &info); err != nil {
		return timestampErr("parse", fmt.Errorf("failed to parse TSTInfo: %w", err))
	}

	t.Info = &info
	t.SignedData = bytes.Clone(der)

	certs, err := sd.Certificates()
	if err != nil {
		return timestampErr("parse", fmt.Errorf("failed to parse embedded certificates: %w", err))
	}
	if len(certs) > 0 {
		t.SignerCert = certs[0]
		if len(sd.SignerInfos) > 0 {
			if match := cms.SignerCertificate(&sd.SignerInfos[0], certs); match != nil {
				t.SignerCert = match
			}
		}
	}
	return nil
}
