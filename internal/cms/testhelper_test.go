package cms

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"
)

// testKeyPair holds a key pair for testing.
type testKeyPair struct {
	PrivateKey crypto.Signer
	PublicKey  crypto.PublicKey
}

func generateECDSAKeyPair(t *testing.T) *testKeyPair {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate ECDSA key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: &priv.PublicKey}
}

func generateRSAKeyPair(t *testing.T) *testKeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: &priv.PublicKey}
}

func generateEd25519KeyPair(t *testing.T) *testKeyPair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: pub}
}

// generateTestCertificate creates a self-signed certificate for testing.
func generateTestCertificate(t *testing.T, kp *testKeyPair) *x509.Certificate {
	t.Helper()

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("Failed to generate serial number: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   "Test Signer",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, kp.PublicKey, kp.PrivateKey)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}

	return cert
}

// modifySignature flips a byte of the first SignerInfo's signature.
func modifySignature(t *testing.T, signedDataDER []byte) []byte {
	t.Helper()

	var contentInfo ContentInfo
	if _, err := asn1.Unmarshal(signedDataDER, &contentInfo); err != nil {
		t.Fatalf("Failed to parse ContentInfo: %v", err)
	}

	var signedData SignedData
	if _, err := asn1.Unmarshal(contentInfo.Content.Bytes, &signedData); err != nil {
		t.Fatalf("Failed to parse SignedData: %v", err)
	}

	if len(signedData.SignerInfos) == 0 {
		t.Fatal("No signer info in SignedData")
	}

	if len(signedData.SignerInfos[0].Signature) > 0 {
		signedData.SignerInfos[0].Signature[0] ^= 0xFF
	}

	signedDataBytes, err := asn1.Marshal(signedData)
	if err != nil {
		t.Fatalf("Failed to marshal modified SignedData: %v", err)
	}

	contentInfo.Content = asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        0,
		IsCompound: true,
		Bytes:      signedDataBytes,
	}

	result, err := asn1.Marshal(contentInfo)
	if err != nil {
		t.Fatalf("Failed to marshal ContentInfo: %v", err)
	}

	return result
}

// modifyMessageDigest flips a byte of the message-digest signed attribute.
func modifyMessageDigest(t *testing.T, signedDataDER []byte) []byte {
	t.Helper()

	var contentInfo ContentInfo
	if _, err := asn1.Unmarshal(signedDataDER, &contentInfo); err != nil {
		t.Fatalf("Failed to parse ContentInfo: %v", err)
	}

	var signedData SignedData
	if _, err := asn1.Unmarshal(contentInfo.Content.Bytes, &signedData); err != nil {
		t.Fatalf("Failed to parse SignedData: %v", err)
	}

	if len(signedData.SignerInfos) == 0 {
		t.Fatal("No signer info in SignedData")
	}

	for i, attr := range signedData.SignerInfos[0].SignedAttrs {
		if attr.Type.Equal(OIDMessageDigest) && len(attr.Values) > 0 {
			var md []byte
			if _, err := asn1.Unmarshal(attr.Values[0].FullBytes, &md); err == nil && len(md) > 0 {
				md[0] ^= 0xFF
				newMD, _ := asn1.Marshal(md)
				signedData.SignerInfos[0].SignedAttrs[i].Values[0] = asn1.RawValue{FullBytes: newMD}
			}
			break
		}
	}

	signedDataBytes, err := asn1.Marshal(signedData)
	if err != nil {
		t.Fatalf("Failed to marshal modified SignedData: %v", err)
	}

	contentInfo.Content = asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        0,
		IsCompound: true,
		Bytes:      signedDataBytes,
	}

	result, err := asn1.Marshal(contentInfo)
	if err != nil {
		t.Fatalf("Failed to marshal ContentInfo: %v", err)
	}

	return result
}
