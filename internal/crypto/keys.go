package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
)

// GenerateKey creates a new private key for the named algorithm.
// Supported: ecdsa-p256, ecdsa-p384, ecdsa-p521, ed25519, rsa-2048,
// rsa-4096, ml-dsa-44, ml-dsa-65, ml-dsa-87.
func GenerateKey(algorithm string) (crypto.Signer, error) {
	switch strings.ToLower(algorithm) {
	case "ecdsa-p256":
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case "ecdsa-p384":
		return ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case "ecdsa-p521":
		return ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	case "ed25519":
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		return priv, err
	case "rsa-2048":
		return rsa.GenerateKey(rand.Reader, 2048)
	case "rsa-4096":
		return rsa.GenerateKey(rand.Reader, 4096)
	case "ml-dsa-44":
		_, priv, err := mldsa44.GenerateKey(rand.Reader)
		return priv, err
	case "ml-dsa-65":
		_, priv, err := mldsa65.GenerateKey(rand.Reader)
		return priv, err
	case "ml-dsa-87":
		_, priv, err := mldsa87.GenerateKey(rand.Reader)
		return priv, err
	default:
		return nil, fmt.Errorf("unknown key algorithm: %s", algorithm)
	}
}

// MarshalPrivateKeyPEM encodes a private key as PEM. Classical keys use
// PKCS#8; ML-DSA keys use their binary encoding with a dedicated block type
// since x509 has no PKCS#8 support for them yet.
func MarshalPrivateKeyPEM(key crypto.Signer) ([]byte, error) {
	var block *pem.Block

	switch k := key.(type) {
	case *mldsa44.PrivateKey:
		raw, err := k.MarshalBinary()
		if err != nil {
			return nil, err
		}
		block = &pem.Block{Type: "ML-DSA-44 PRIVATE KEY", Bytes: raw}
	case *mldsa65.PrivateKey:
		raw, err := k.MarshalBinary()
		if err != nil {
			return nil, err
		}
		block = &pem.Block{Type: "ML-DSA-65 PRIVATE KEY", Bytes: raw}
	case *mldsa87.PrivateKey:
		raw, err := k.MarshalBinary()
		if err != nil {
			return nil, err
		}
		block = &pem.Block{Type: "ML-DSA-87 PRIVATE KEY", Bytes: raw}
	default:
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal key: %w", err)
		}
		block = &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	}

	return pem.EncodeToMemory(block), nil
}

// LoadPrivateKey loads a private key from a PEM file.
func LoadPrivateKey(path string) (crypto.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return ParsePrivateKeyPEM(data)
}

// ParsePrivateKeyPEM parses the first private key block in PEM data.
func ParsePrivateKeyPEM(data []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	switch block.Type {
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#8 key: %w", err)
		}
		signer, ok := priv.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("key type %T cannot sign", priv)
		}
		return signer, nil

	case "EC PRIVATE KEY":
		priv, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EC key: %w", err)
		}
		return priv, nil

	case "RSA PRIVATE KEY":
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA key: %w", err)
		}
		return priv, nil

	case "ML-DSA-44 PRIVATE KEY":
		var priv mldsa44.PrivateKey
		if err := priv.UnmarshalBinary(block.Bytes); err != nil {
			return nil, fmt.Errorf("failed to parse ML-DSA-44 key: %w", err)
		}
		return &priv, nil

	case "ML-DSA-65 PRIVATE KEY":
		var priv mldsa65.PrivateKey
		if err := priv.UnmarshalBinary(block.Bytes); err != nil {
			return nil, fmt.Errorf("failed to parse ML-DSA-65 key: %w", err)
		}
		return &priv, nil

	case "ML-DSA-87 PRIVATE KEY":
		var priv mldsa87.PrivateKey
		if err := priv.UnmarshalBinary(block.Bytes); err != nil {
			return nil, fmt.Errorf("failed to parse ML-DSA-87 key: %w", err)
		}
		return &priv, nil

	default:
		return nil, fmt.Errorf("unknown PEM type: %s", block.Type)
	}
}
