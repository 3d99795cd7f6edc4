package tsp

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"

	"github.com/remiblancher/qtsa/internal/cms"
	qcrypto "github.com/remiblancher/qtsa/internal/crypto"
)

// ResponseFactory issues timestamp tokens. It is a reusable configuration
// object: each CreateTimestamp call is independent and does not mutate the
// factory, so one factory can serve many issuances.
//
// GenTime and SerialNumber must be set by the caller before issuance; the
// factory never substitutes defaults for them. In a real deployment the
// serial number must be unique per issued token.
type ResponseFactory struct {
	GenTime       time.Time
	SerialNumber  *big.Int
	DefaultPolicy asn1.ObjectIdentifier

	// AdditionalCerts are bundled with the signer certificate when the
	// request asks for certificate inclusion, typically the issuing chain.
	AdditionalCerts []*x509.Certificate

	Accuracy Accuracy
	Ordering bool
}

// SetDefaultPolicyID sets the fallback policy from a dotted OID string.
func (f *ResponseFactory) SetDefaultPolicyID(oid string) error {
	parsed, err := parseObjectIdentifier(oid)
	if err != nil {
		return timestampErr("issue", fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}
	f.DefaultPolicy = parsed
	return nil
}

// CreateTimestamp issues a GRANTED timestamp token answering req, signed
// with signer and identified by cert. A request that cannot be granted is a
// hard error; no rejection-status token is produced.
func (f *ResponseFactory) CreateTimestamp(signer crypto.Signer, cert *x509.Certificate, req *Request) (*Token, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: nil signing key", ErrInvalidArgument)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: nil signing certificate", ErrInvalidArgument)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidArgument)
	}

	if req.digest.IsZero() {
		return nil, timestampErr("issue", ErrMissingHashAlgorithm)
	}
	if len(req.imprint) == 0 {
		return nil, timestampErr("issue", ErrMissingMessageImprint)
	}
	if f.GenTime.IsZero() {
		return nil, timestampErr("issue", ErrMissingGenTime)
	}
	if f.SerialNumber == nil {
		return nil, timestampErr("issue", ErrMissingSerialNumber)
	}

	// The request's policy wins over the factory default.
	policy := req.policy
	if len(policy) == 0 {
		policy = f.DefaultPolicy
	}
	if len(policy) == 0 {
		return nil, timestampErr("issue", ErrNoPolicy)
	}

	info := TSTInfo{
		Version: 1,
		Policy:  append(asn1.ObjectIdentifier(nil), policy...),
		MessageImprint: MessageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: req.digest.OID},
			HashedMessage: req.MessageImprint(),
		},
		SerialNumber: new(big.Int).Set(f.SerialNumber),
		GenTime:      f.GenTime.UTC(),
		Ordering:     f.Ordering,
	}
	if req.nonce != nil {
		info.Nonce = new(big.Int).Set(req.nonce)
	}
	if !f.Accuracy.IsZero() {
		info.Accuracy = f.Accuracy
	}

	infoDER, err := asn1.Marshal(info)
	if err != nil {
		return nil, timestampErr("issue", fmt.Errorf("failed to marshal TSTInfo: %w", err))
	}

	// The imprint digest doubles as the container digest when the signature
	// algorithms support it; legacy and SHA-3 imprints fall back to SHA-256.
	digestAlg := req.digest.Hash
	if !qcrypto.SigningDigestSupported(digestAlg) {
		digestAlg = crypto.SHA256
	}

	signedData, err := cms.Sign(infoDER, &cms.SignerConfig{
		Certificate:  cert,
		Signer:       signer,
		DigestAlg:    digestAlg,
		IncludeCerts: req.certReq,
		ExtraCerts:   f.AdditionalCerts,
		SigningTime:  f.GenTime,
		ContentType:  cms.OIDTSTInfo,
	})
	if err != nil {
		return nil, timestampErr("issue", fmt.Errorf("failed to create SignedData: %w", err))
	}

	token := &Token{
		Status:     StatusGranted,
		Info:       &info,
		SignedData: signedData,
	}
	if req.certReq {
		token.SignerCert = cert
	}
	return token, nil
}
