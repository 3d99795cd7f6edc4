package tsp

import (
	"crypto"
	"encoding/asn1"
	"fmt"
	"strconv"
	"strings"

	qcrypto "github.com/remiblancher/qtsa/internal/crypto"
)

// DigestAlgorithm couples a crypto.Hash with its DER object identifier.
// The zero value means "not set".
type DigestAlgorithm struct {
	Hash crypto.Hash
	OID  asn1.ObjectIdentifier
}

// IsZero reports whether the algorithm is unset.
func (a DigestAlgorithm) IsZero() bool { return a.Hash == 0 }

// Name returns the canonical digest name, or the OID string if unknown.
func (a DigestAlgorithm) Name() string {
	switch a.Hash {
	case crypto.SHA1:
		return "SHA1"
	case crypto.SHA256:
		return "SHA256"
	case crypto.SHA384:
		return "SHA384"
	case crypto.SHA512:
		return "SHA512"
	case crypto.SHA3_256:
		return "SHA3-256"
	case crypto.SHA3_384:
		return "SHA3-384"
	case crypto.SHA3_512:
		return "SHA3-512"
	default:
		return a.OID.String()
	}
}

// digestNames maps accepted digest names to hashes. Lookup is done on the
// uppercased input with "-" and "_" stripped, so "sha256", "SHA-256" and
// "sha_256" are equivalent.
var digestNames = map[string]crypto.Hash{
	"SHA1":    crypto.SHA1,
	"SHA256":  crypto.SHA256,
	"SHA384":  crypto.SHA384,
	"SHA512":  crypto.SHA512,
	"SHA3256": crypto.SHA3_256,
	"SHA3384": crypto.SHA3_384,
	"SHA3512": crypto.SHA3_512,
}

// ResolveDigestAlgorithm resolves a digest name ("SHA1", "sha-256", ...) or a
// dotted OID string ("2.16.840.1.101.3.4.2.1") to a DigestAlgorithm.
func ResolveDigestAlgorithm(name string) (DigestAlgorithm, error) {
	if name == "" {
		return DigestAlgorithm{}, fmt.Errorf("%w: empty name", ErrInvalidAlgorithm)
	}

	if oid, err := parseObjectIdentifier(name); err == nil {
		return digestAlgorithmByOID(oid)
	}

	key := strings.NewReplacer("-", "", "_", "").Replace(strings.ToUpper(name))
	h, ok := digestNames[key]
	if !ok {
		return DigestAlgorithm{}, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, name)
	}
	oid, err := qcrypto.DigestOID(h)
	if err != nil {
		return DigestAlgorithm{}, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, name)
	}
	return DigestAlgorithm{Hash: h, OID: oid}, nil
}

// ComputeImprint hashes data with the given algorithm, producing the
// message imprint bytes for a request.
func ComputeImprint(alg DigestAlgorithm, data []byte) ([]byte, error) {
	if alg.IsZero() {
		return nil, ErrMissingHashAlgorithm
	}
	return qcrypto.ComputeDigest(data, alg.Hash)
}

// digestAlgorithmByOID resolves a digest algorithm OID.
func digestAlgorithmByOID(oid asn1.ObjectIdentifier) (DigestAlgorithm, error) {
	h, err := qcrypto.HashFromOID(oid)
	if err != nil {
		return DigestAlgorithm{}, fmt.Errorf("%w: %v", ErrInvalidAlgorithm, oid)
	}
	return DigestAlgorithm{Hash: h, OID: oid}, nil
}

// parseObjectIdentifier parses a dotted OID string.
func parseObjectIdentifier(s string) (asn1.ObjectIdentifier, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid OID %q", s)
	}
	oid := make(asn1.ObjectIdentifier, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid OID %q", s)
		}
		oid = append(oid, n)
	}
	return oid, nil
}
