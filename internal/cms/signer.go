package cms

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"time"

	qcrypto "github.com/remiblancher/qtsa/internal/crypto"
)

// SignerConfig contains options for signing.
type SignerConfig struct {
	Certificate  *x509.Certificate
	Signer       crypto.Signer
	DigestAlg    crypto.Hash
	IncludeCerts bool
	// ExtraCerts are bundled after the signer certificate when
	// IncludeCerts is set, typically the issuing chain.
	ExtraCerts  []*x509.Certificate
	SigningTime time.Time
	ContentType asn1.ObjectIdentifier
}

// Sign creates a CMS SignedData structure over content.
func Sign(content []byte, config *SignerConfig) ([]byte, error) {
	if config.Certificate == nil {
		return nil, fmt.Errorf("certificate is required")
	}
	if config.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if config.DigestAlg == 0 {
		config.DigestAlg = crypto.SHA256
	}
	if config.SigningTime.IsZero() {
		config.SigningTime = time.Now().UTC()
	}
	if len(config.ContentType) == 0 {
		config.ContentType = OIDData
	}

	digest, err := qcrypto.ComputeDigest(content, config.DigestAlg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute digest: %w", err)
	}

	signedAttrs, err := buildSignedAttrs(config.ContentType, digest, config.SigningTime)
	if err != nil {
		return nil, fmt.Errorf("failed to build signed attributes: %w", err)
	}

	signedAttrsDER, err := MarshalSignedAttrs(signedAttrs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signed attributes: %w", err)
	}

	signature, err := qcrypto.SignMessage(config.Signer, signedAttrsDER, config.DigestAlg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	digestOID, err := qcrypto.DigestOID(config.DigestAlg)
	if err != nil {
		return nil, err
	}
	digestAlgID := pkix.AlgorithmIdentifier{Algorithm: digestOID}

	sigAlgID, err := qcrypto.SignatureAlgorithm(config.Signer.Public(), config.DigestAlg)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature algorithm: %w", err)
	}

	signerInfo := SignerInfo{
		Version: 1,
		SID: SignerIdentifier{
			IssuerAndSerialNumber: IssuerAndSerialNumber{
				Issuer:       asn1.RawValue{FullBytes: config.Certificate.RawIssuer},
				SerialNumber: config.Certificate.SerialNumber,
			},
		},
		DigestAlgorithm:    digestAlgID,
		SignedAttrs:        signedAttrs,
		SignatureAlgorithm: sigAlgID,
		Signature:          signature,
	}

	// EContent is [0] EXPLICIT OCTET STRING: encode the OCTET STRING first,
	// then carry it inside a context-specific [0] constructed RawValue so the
	// explicit wrapper survives marshaling.
	octetString, err := asn1.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}

	signedData := SignedData{
		Version:          1,
		DigestAlgorithms: []pkix.AlgorithmIdentifier{digestAlgID},
		EncapContentInfo: EncapsulatedContentInfo{
			EContentType: config.ContentType,
			EContent: asn1.RawValue{
				Class:      asn1.ClassContextSpecific,
				Tag:        0,
				IsCompound: true,
				Bytes:      octetString,
			},
		},
		SignerInfos: []SignerInfo{signerInfo},
	}

	// The certificate set is omitted entirely unless requested.
	if config.IncludeCerts {
		certs := append([]*x509.Certificate{config.Certificate}, config.ExtraCerts...)
		rawCerts, err := marshalCertificates(certs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal certificates: %w", err)
		}
		signedData.RawCertificates = rawCerts
	}

	signedDataDER, err := asn1.Marshal(signedData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SignedData: %w", err)
	}

	contentInfo := ContentInfo{
		ContentType: OIDSignedData,
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: signedDataDER},
	}

	return asn1.Marshal(contentInfo)
}

func buildSignedAttrs(contentType asn1.ObjectIdentifier, digest []byte, signingTime time.Time) ([]Attribute, error) {
	ctAttr, err := NewContentTypeAttr(contentType)
	if err != nil {
		return nil, err
	}

	mdAttr, err := NewMessageDigestAttr(digest)
	if err != nil {
		return nil, err
	}

	stAttr, err := NewSigningTimeAttr(signingTime)
	if err != nil {
		return nil, err
	}

	return []Attribute{ctAttr, mdAttr, stAttr}, nil
}
