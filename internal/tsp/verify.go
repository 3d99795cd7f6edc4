package tsp

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"time"

	"github.com/remiblancher/qtsa/internal/cms"
)

// Verify checks a timestamp token against the request it answers and a set
// of trust anchors. trusted and the optional untrusted sources accept any
// form understood by CertificatesFrom; untrusted certificates may complete
// the chain but are not themselves trusted.
//
// A nil return means the token is valid: the nonce and imprint bind it to
// the request, the container signature verifies, the signer chains to a
// trust anchor, and the signer is authorized for timestamping. Verification
// never mutates token or req and may be repeated with the same outcome.
func Verify(token *Token, req *Request, trusted any, untrusted ...any) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidArgument)
	}
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidArgument)
	}
	if trusted == nil {
		return fmt.Errorf("%w: nil trust anchor source", ErrInvalidArgument)
	}

	roots, err := CertificatesFrom(trusted)
	if err != nil {
		return err
	}

	var extras []*x509.Certificate
	for _, src := range untrusted {
		if src == nil {
			continue
		}
		certs, err := CertificatesFrom(src)
		if err != nil {
			return err
		}
		extras = append(extras, certs...)
	}

	if token.Info == nil || len(token.SignedData) == 0 {
		return timestampErr("verify", ErrInvalidToken)
	}

	// Nonce binding: a request nonce must be echoed exactly.
	if req.nonce != nil {
		if token.Info.Nonce == nil || req.nonce.Cmp(token.Info.Nonce) != 0 {
			return timestampErr("verify", ErrNonceMismatch)
		}
	}

	// The token must cover the same imprint under the same algorithm.
	if req.digest.IsZero() || !req.digest.OID.Equal(token.Info.MessageImprint.HashAlgorithm.Algorithm) {
		return timestampErr("verify", ErrAlgorithmMismatch)
	}
	if !bytes.Equal(req.imprint, token.Info.MessageImprint.HashedMessage) {
		return timestampErr("verify", ErrImprintMismatch)
	}

	sd, err := cms.ParseSignedData(token.SignedData)
	if err != nil {
		return timestampErr("verify", err)
	}
	if len(sd.SignerInfos) == 0 {
		return timestampErr("verify", fmt.Errorf("%w: no signer info", ErrInvalidToken))
	}
	si := &sd.SignerInfos[0]

	embedded, err := sd.Certificates()
	if err != nil {
		return timestampErr("verify", fmt.Errorf("failed to parse embedded certificates: %w", err))
	}

	// The signer certificate must match the SignerInfo's issuer-and-serial,
	// whether it is embedded in the container or supplied by the caller. A
	// container whose certificates all fail to match identifies no signer,
	// which is not a chain failure.
	signer := cms.SignerCertificate(si, embedded)
	if signer == nil {
		signer = cms.SignerCertificate(si, extras)
	}
	if signer == nil {
		return timestampErr("verify", ErrNoSignerCertificate)
	}

	// Chain validation. EKU filtering is disabled here so that a purpose
	// failure cannot masquerade as a trust failure; the purpose check runs
	// separately below.
	opts := x509.VerifyOptions{
		Roots:         newCertPool(roots),
		Intermediates: newCertPool(append(extras, embedded...)),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		CurrentTime:   verificationTime(token),
	}
	if _, err := signer.Verify(opts); err != nil {
		return &CertificateValidationError{Err: err}
	}

	if err := cms.VerifySignerInfo(sd, si, signer); err != nil {
		return timestampErr("verify", err)
	}

	if !hasTimestampingEKU(signer) {
		return timestampErr("verify", ErrWrongPurpose)
	}

	return nil
}

// verificationTime returns the instant at which the signer chain must be
// valid: the token's generation time when available, else now.
func verificationTime(token *Token) time.Time {
	if token.Info != nil && !token.Info.GenTime.IsZero() {
		return token.Info.GenTime
	}
	return time.Now()
}

// hasTimestampingEKU checks that the certificate carries the timeStamping
// extended key usage (id-kp-timeStamping, RFC 3161 Section 2.3).
func hasTimestampingEKU(cert *x509.Certificate) bool {
	for _, eku := range cert.ExtKeyUsage {
		if eku == x509.ExtKeyUsageTimeStamping {
			return true
		}
	}
	for _, oid := range cert.UnknownExtKeyUsage {
		if oid.Equal(oidExtKeyUsageTimeStamping) {
			return true
		}
	}
	return false
}

// id-kp-timeStamping
var oidExtKeyUsageTimeStamping = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 8}
