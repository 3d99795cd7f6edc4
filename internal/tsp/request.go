package tsp

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
)

// TimeStampReq represents a timestamp request on the wire (RFC 3161 Section 2.4.1).
type TimeStampReq struct {
	Version        int
	MessageImprint MessageImprint
	ReqPolicy      asn1.ObjectIdentifier `asn1:"optional"`
	Nonce          *big.Int              `asn1:"optional"`
	CertReq        bool                  `asn1:"optional,default:false"`
	Extensions     []pkix.Extension      `asn1:"optional,tag:0"`
}

// MessageImprint contains the hash of the data to be timestamped.
type MessageImprint struct {
	HashAlgorithm pkix.AlgorithmIdentifier
	HashedMessage []byte
}

// Request is the in-memory model of a client's timestamp request. The zero
// value is not usable; call NewRequest. Setters fully replace prior values,
// so a Request stays marshalable after any sequence of re-assignments.
type Request struct {
	version int
	digest  DigestAlgorithm
	imprint []byte
	policy  asn1.ObjectIdentifier
	nonce   *big.Int
	certReq bool
}

// NewRequest returns a request with protocol version 1 and certificate
// inclusion requested, the common client configuration.
func NewRequest() *Request {
	return &Request{version: 1, certReq: true}
}

// SetHashAlgorithm sets the message imprint digest by name or dotted OID.
func (r *Request) SetHashAlgorithm(name string) error {
	alg, err := ResolveDigestAlgorithm(name)
	if err != nil {
		return timestampErr("request", err)
	}
	r.digest = alg
	return nil
}

// SetMessageImprint sets the digest of the data being timestamped.
func (r *Request) SetMessageImprint(digest []byte) error {
	if len(digest) == 0 {
		return timestampErr("request", fmt.Errorf("%w: empty message imprint", ErrInvalidArgument))
	}
	r.imprint = bytes.Clone(digest)
	return nil
}

// SetPolicyID sets the requested timestamping policy from a dotted OID string.
func (r *Request) SetPolicyID(oid string) error {
	parsed, err := parseObjectIdentifier(oid)
	if err != nil {
		return timestampErr("request", fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}
	r.policy = parsed
	return nil
}

// SetNonce sets the client-chosen nonce. The value is copied.
func (r *Request) SetNonce(nonce *big.Int) error {
	if nonce == nil {
		return timestampErr("request", fmt.Errorf("%w: nil nonce", ErrInvalidArgument))
	}
	r.nonce = new(big.Int).Set(nonce)
	return nil
}

// SetCertRequested controls whether the TSA should embed its certificate
// chain in the response.
func (r *Request) SetCertRequested(requested bool) {
	r.certReq = requested
}

// Version returns the protocol version.
func (r *Request) Version() int { return r.version }

// HashAlgorithm returns the imprint digest algorithm; zero if unset.
func (r *Request) HashAlgorithm() DigestAlgorithm { return r.digest }

// MessageImprint returns a copy of the message imprint; nil if unset.
func (r *Request) MessageImprint() []byte { return bytes.Clone(r.imprint) }

// PolicyID returns the requested policy as a dotted OID string, or "".
func (r *Request) PolicyID() string {
	if len(r.policy) == 0 {
		return ""
	}
	return r.policy.String()
}

// Nonce returns a copy of the nonce, or nil if unset.
func (r *Request) Nonce() *big.Int {
	if r.nonce == nil {
		return nil
	}
	return new(big.Int).Set(r.nonce)
}

// CertRequested reports whether certificate inclusion was requested.
func (r *Request) CertRequested() bool { return r.certReq }

// Marshal encodes the request as a DER TimeStampReq. Both the hash algorithm
// and the message imprint must be set.
func (r *Request) Marshal() ([]byte, error) {
	if r.digest.IsZero() {
		return nil, timestampErr("request", ErrMissingHashAlgorithm)
	}
	if len(r.imprint) == 0 {
		return nil, timestampErr("request", ErrMissingMessageImprint)
	}

	wire := TimeStampReq{
		Version: r.version,
		MessageImprint: MessageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: r.digest.OID},
			HashedMessage: r.imprint,
		},
		ReqPolicy: r.policy,
		Nonce:     r.nonce,
		CertReq:   r.certReq,
	}
	return asn1.Marshal(wire)
}

// ParseRequest parses a DER-encoded TimeStampReq.
func ParseRequest(data []byte) (*Request, error) {
	var wire TimeStampReq
	rest, err := asn1.Unmarshal(data, &wire)
	if err != nil {
		return nil, timestampErr("parse", fmt.Errorf("failed to parse TimeStampReq: %w", err))
	}
	if len(rest) > 0 {
		return nil, timestampErr("parse", fmt.Errorf("trailing data after TimeStampReq"))
	}
	return RequestFromWire(&wire)
}

// RequestFromWire builds a Request from an already-decoded TimeStampReq,
// for callers that hold an intermediate ASN.1 form rather than raw bytes.
func RequestFromWire(wire *TimeStampReq) (*Request, error) {
	if wire == nil {
		return nil, timestampErr("parse", fmt.Errorf("%w: nil request", ErrInvalidArgument))
	}
	if wire.Version != 1 {
		return nil, timestampErr("parse", fmt.Errorf("unsupported TSP version: %d", wire.Version))
	}

	alg, err := digestAlgorithmByOID(wire.MessageImprint.HashAlgorithm.Algorithm)
	if err != nil {
		return nil, timestampErr("parse", err)
	}
	if got, want := len(wire.MessageImprint.HashedMessage), alg.Hash.Size(); got != want {
		return nil, timestampErr("parse", fmt.Errorf("hash length mismatch: got %d, expected %d", got, want))
	}

	req := &Request{
		version: wire.Version,
		digest:  alg,
		imprint: bytes.Clone(wire.MessageImprint.HashedMessage),
		certReq: wire.CertReq,
	}
	if len(wire.ReqPolicy) > 0 {
		req.policy = append(asn1.ObjectIdentifier(nil), wire.ReqPolicy...)
	}
	if wire.Nonce != nil {
		req.nonce = new(big.Int).Set(wire.Nonce)
	}
	return req, nil
}
