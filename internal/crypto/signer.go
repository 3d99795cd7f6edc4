package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
)

// SignMessage signs message with the given signer. Classical algorithms sign
// a digest computed with digestAlg; Ed25519 and ML-DSA sign the message
// directly (pure mode, RFC 9882 for ML-DSA).
func SignMessage(signer crypto.Signer, message []byte, digestAlg crypto.Hash) ([]byte, error) {
	switch signer.Public().(type) {
	case *ecdsa.PublicKey, *rsa.PublicKey:
		digest, err := ComputeDigest(message, digestAlg)
		if err != nil {
			return nil, err
		}
		return signer.Sign(rand.Reader, digest, digestAlg)
	default:
		// Ed25519 and ML-DSA keys sign the full message.
		return signer.Sign(rand.Reader, message, crypto.Hash(0))
	}
}

// SignatureAlgorithm returns the AlgorithmIdentifier for signatures produced
// by the given public key with the given digest.
func SignatureAlgorithm(pub crypto.PublicKey, digestAlg crypto.Hash) (pkix.AlgorithmIdentifier, error) {
	switch pub.(type) {
	case *ecdsa.PublicKey:
		switch digestAlg {
		case crypto.SHA256:
			return pkix.AlgorithmIdentifier{Algorithm: OIDECDSAWithSHA256}, nil
		case crypto.SHA384:
			return pkix.AlgorithmIdentifier{Algorithm: OIDECDSAWithSHA384}, nil
		case crypto.SHA512:
			return pkix.AlgorithmIdentifier{Algorithm: OIDECDSAWithSHA512}, nil
		default:
			return pkix.AlgorithmIdentifier{}, fmt.Errorf("unsupported ECDSA digest: %v", digestAlg)
		}
	case ed25519.PublicKey:
		return pkix.AlgorithmIdentifier{Algorithm: OIDEd25519}, nil
	case *rsa.PublicKey:
		switch digestAlg {
		case crypto.SHA256:
			return pkix.AlgorithmIdentifier{Algorithm: OIDSHA256WithRSA}, nil
		case crypto.SHA384:
			return pkix.AlgorithmIdentifier{Algorithm: OIDSHA384WithRSA}, nil
		case crypto.SHA512:
			return pkix.AlgorithmIdentifier{Algorithm: OIDSHA512WithRSA}, nil
		default:
			return pkix.AlgorithmIdentifier{}, fmt.Errorf("unsupported RSA digest: %v", digestAlg)
		}
	case *mldsa44.PublicKey:
		return pkix.AlgorithmIdentifier{Algorithm: OIDMLDSA44}, nil
	case *mldsa65.PublicKey:
		return pkix.AlgorithmIdentifier{Algorithm: OIDMLDSA65}, nil
	case *mldsa87.PublicKey:
		return pkix.AlgorithmIdentifier{Algorithm: OIDMLDSA87}, nil
	default:
		return pkix.AlgorithmIdentifier{}, fmt.Errorf("unsupported public key type: %T", pub)
	}
}

// VerifyMessage verifies a signature over message. digestAlg is the digest
// used for classical algorithms; sigAlgOID selects ML-DSA verification for
// keys the standard library cannot handle.
func VerifyMessage(pub crypto.PublicKey, sigAlgOID asn1.ObjectIdentifier, message, signature []byte, digestAlg crypto.Hash) error {
	switch key := pub.(type) {
	case *ecdsa.PublicKey:
		digest, err := ComputeDigest(message, digestAlg)
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(key, digest, signature) {
			return fmt.Errorf("ECDSA signature verification failed")
		}
		return nil

	case ed25519.PublicKey:
		if !ed25519.Verify(key, message, signature) {
			return fmt.Errorf("Ed25519 signature verification failed")
		}
		return nil

	case *rsa.PublicKey:
		digest, err := ComputeDigest(message, digestAlg)
		if err != nil {
			return err
		}
		if err := rsa.VerifyPKCS1v15(key, digestAlg, digest, signature); err != nil {
			return fmt.Errorf("RSA signature verification failed: %w", err)
		}
		return nil

	case *mldsa44.PublicKey:
		if !mldsa44.Verify(key, message, nil, signature) {
			return fmt.Errorf("ML-DSA-44 signature verification failed")
		}
		return nil

	case *mldsa65.PublicKey:
		if !mldsa65.Verify(key, message, nil, signature) {
			return fmt.Errorf("ML-DSA-65 signature verification failed")
		}
		return nil

	case *mldsa87.PublicKey:
		if !mldsa87.Verify(key, message, nil, signature) {
			return fmt.Errorf("ML-DSA-87 signature verification failed")
		}
		return nil

	default:
		return fmt.Errorf("unsupported public key type %T for signature algorithm %v", pub, sigAlgOID)
	}
}
