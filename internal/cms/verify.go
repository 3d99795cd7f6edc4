package cms

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	qcrypto "github.com/remiblancher/qtsa/internal/crypto"
)

// VerifySignerInfo checks a SignerInfo's signature over the SignedData
// content using the given certificate's public key. When signed attributes
// are present, the message-digest attribute is checked against the content
// and the signature is verified over the DER SET OF attributes.
func VerifySignerInfo(sd *SignedData, si *SignerInfo, cert *x509.Certificate) error {
	content := sd.Content()

	hashAlg, err := qcrypto.HashFromOID(si.DigestAlgorithm.Algorithm)
	if err != nil {
		return err
	}

	if len(si.SignedAttrs) == 0 {
		return qcrypto.VerifyMessage(cert.PublicKey, si.SignatureAlgorithm.Algorithm, content, si.Signature, hashAlg)
	}

	contentDigest, err := qcrypto.ComputeDigest(content, hashAlg)
	if err != nil {
		return fmt.Errorf("failed to compute content digest: %w", err)
	}

	found := false
	for _, attr := range si.SignedAttrs {
		if attr.Type.Equal(OIDMessageDigest) && len(attr.Values) > 0 {
			var md []byte
			if _, err := asn1.Unmarshal(attr.Values[0].FullBytes, &md); err != nil {
				return fmt.Errorf("failed to parse message digest attribute: %w", err)
			}
			if !bytes.Equal(md, contentDigest) {
				return fmt.Errorf("message digest mismatch")
			}
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no message digest attribute found")
	}

	signedAttrsDER, err := MarshalSignedAttrs(si.SignedAttrs)
	if err != nil {
		return fmt.Errorf("failed to marshal signed attributes: %w", err)
	}

	return qcrypto.VerifyMessage(cert.PublicKey, si.SignatureAlgorithm.Algorithm, signedAttrsDER, si.Signature, hashAlg)
}

// SignerCertificate locates the certificate matching a SignerInfo's
// issuer-and-serial identifier among candidates. Returns nil if none match.
func SignerCertificate(si *SignerInfo, candidates []*x509.Certificate) *x509.Certificate {
	for _, cert := range candidates {
		if cert == nil {
			continue
		}
		if cert.SerialNumber == nil || si.SID.IssuerAndSerialNumber.SerialNumber == nil {
			continue
		}
		if cert.SerialNumber.Cmp(si.SID.IssuerAndSerialNumber.SerialNumber) != 0 {
			continue
		}
		if bytes.Equal(si.SID.IssuerAndSerialNumber.Issuer.FullBytes, cert.RawIssuer) {
			return cert
		}
	}
	return nil
}
