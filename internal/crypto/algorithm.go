// Package crypto provides the signing and digest primitives used by the
// timestamping core. It supports classical algorithms (ECDSA, Ed25519, RSA)
// and post-quantum ML-DSA (FIPS 204) via the cloudflare/circl library.
package crypto

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/asn1"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

// Digest algorithm OIDs.
var (
	OIDSHA1   = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	OIDSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	OIDSHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	OIDSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}

	OIDSHA3_256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 8}
	OIDSHA3_384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 9}
	OIDSHA3_512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 10}
)

// Signature algorithm OIDs.
var (
	// ECDSA
	OIDECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	OIDECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	OIDECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}

	// Ed25519
	OIDEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

	// RSA PKCS#1 v1.5
	OIDSHA256WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	OIDSHA384WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	OIDSHA512WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}

	// ML-DSA (FIPS 204)
	OIDMLDSA44 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 17}
	OIDMLDSA65 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 18}
	OIDMLDSA87 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 19}
)

// digestOIDs maps the supported hashes to their DER object identifiers.
var digestOIDs = map[crypto.Hash]asn1.ObjectIdentifier{
	crypto.SHA1:     OIDSHA1,
	crypto.SHA256:   OIDSHA256,
	crypto.SHA384:   OIDSHA384,
	crypto.SHA512:   OIDSHA512,
	crypto.SHA3_256: OIDSHA3_256,
	crypto.SHA3_384: OIDSHA3_384,
	crypto.SHA3_512: OIDSHA3_512,
}

// DigestOID returns the object identifier for a supported hash.
func DigestOID(h crypto.Hash) (asn1.ObjectIdentifier, error) {
	oid, ok := digestOIDs[h]
	if !ok {
		return nil, fmt.Errorf("unsupported digest algorithm: %v", h)
	}
	return oid, nil
}

// HashFromOID returns the crypto.Hash identified by a digest algorithm OID.
func HashFromOID(oid asn1.ObjectIdentifier) (crypto.Hash, error) {
	for h, o := range digestOIDs {
		if o.Equal(oid) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unsupported digest algorithm: %v", oid)
}

// NewHasher returns a hash.Hash for a supported algorithm.
func NewHasher(alg crypto.Hash) (hash.Hash, error) {
	switch alg {
	case crypto.SHA1:
		return sha1.New(), nil
	case crypto.SHA256:
		return sha256.New(), nil
	case crypto.SHA384:
		return sha512.New384(), nil
	case crypto.SHA512:
		return sha512.New(), nil
	case crypto.SHA3_256:
		return sha3.New256(), nil
	case crypto.SHA3_384:
		return sha3.New384(), nil
	case crypto.SHA3_512:
		return sha3.New512(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %v", alg)
	}
}

// ComputeDigest hashes data with the given algorithm.
func ComputeDigest(data []byte, alg crypto.Hash) ([]byte, error) {
	h, err := NewHasher(alg)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// SigningDigestSupported reports whether a digest can back one of the
// classical signature algorithm identifiers. SHA-1 and SHA-3 imprints are
// accepted on the protocol side but are not offered for signing.
func SigningDigestSupported(h crypto.Hash) bool {
	switch h {
	case crypto.SHA256, crypto.SHA384, crypto.SHA512:
		return true
	default:
		return false
	}
}
