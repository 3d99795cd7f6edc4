package tsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// testChain holds a root -> intermediate -> TSA leaf hierarchy.
type testChain struct {
	Root         *x509.Certificate
	RootKey      crypto.Signer
	Intermediate *x509.Certificate
	IntermKey    crypto.Signer
	Leaf         *x509.Certificate
	LeafKey      crypto.Signer
}

func generateTestKey(t *testing.T) crypto.Signer {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	return priv
}

func newCertSerial(t *testing.T) *big.Int {
	t.Helper()
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("Failed to generate serial number: %v", err)
	}
	return serial
}

func createCertificate(t *testing.T, template, parent *x509.Certificate, pub crypto.PublicKey, parentKey crypto.Signer) *x509.Certificate {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, parentKey)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}
	return cert
}

// createTestChain builds a root CA, an intermediate CA, and a TSA leaf with
// the timeStamping EKU.
func createTestChain(t *testing.T) *testChain {
	t.Helper()

	rootKey := generateTestKey(t)
	rootTemplate := &x509.Certificate{
		SerialNumber: newCertSerial(t),
		Subject: pkix.Name{
			CommonName:   "Test Root CA",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	root := createCertificate(t, rootTemplate, rootTemplate, rootKey.Public(), rootKey)

	intermKey := generateTestKey(t)
	intermTemplate := &x509.Certificate{
		SerialNumber: newCertSerial(t),
		Subject: pkix.Name{
			CommonName:   "Test Issuing CA",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(180 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}
	interm := createCertificate(t, intermTemplate, root, intermKey.Public(), rootKey)

	leafKey := generateTestKey(t)
	leaf := createCertificate(t, tsaLeafTemplate(t, true), interm, leafKey.Public(), intermKey)

	return &testChain{
		Root:         root,
		RootKey:      rootKey,
		Intermediate: interm,
		IntermKey:    intermKey,
		Leaf:         leaf,
		LeafKey:      leafKey,
	}
}

// issueLeafWithoutEKU issues a second leaf from the chain's intermediate
// that lacks the timeStamping EKU.
func (c *testChain) issueLeafWithoutEKU(t *testing.T) (*x509.Certificate, crypto.Signer) {
	t.Helper()
	key := generateTestKey(t)
	cert := createCertificate(t, tsaLeafTemplate(t, false), c.Intermediate, key.Public(), c.IntermKey)
	return cert, key
}

func tsaLeafTemplate(t *testing.T, timestamping bool) *x509.Certificate {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber: newCertSerial(t),
		Subject: pkix.Name{
			CommonName:   "Test TSA",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	if timestamping {
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping}
	}
	return template
}

// createSelfSignedTSA builds a standalone self-signed TSA certificate.
func createSelfSignedTSA(t *testing.T) (*x509.Certificate, crypto.Signer) {
	t.Helper()
	key := generateTestKey(t)
	template := tsaLeafTemplate(t, true)
	template.KeyUsage |= x509.KeyUsageCertSign
	template.IsCA = true
	cert := createCertificate(t, template, template, key.Public(), key)
	return cert, key
}

// newTestFactory builds a factory ready for issuance.
func newTestFactory(t *testing.T) *ResponseFactory {
	t.Helper()
	f := &ResponseFactory{
		GenTime:      time.Now().UTC().Truncate(time.Second),
		SerialNumber: big.NewInt(1),
	}
	if err := f.SetDefaultPolicyID("1.2.3.4.5"); err != nil {
		t.Fatalf("Failed to set default policy: %v", err)
	}
	return f
}

// newTestRequest builds a request over data with the given digest name.
func newTestRequest(t *testing.T, digestName string, data []byte) *Request {
	t.Helper()
	req := NewRequest()
	if err := req.SetHashAlgorithm(digestName); err != nil {
		t.Fatalf("Failed to set hash algorithm: %v", err)
	}
	imprint, err := ComputeImprint(req.HashAlgorithm(), data)
	if err != nil {
		t.Fatalf("Failed to compute imprint: %v", err)
	}
	if err := req.SetMessageImprint(imprint); err != nil {
		t.Fatalf("Failed to set message imprint: %v", err)
	}
	return req
}

// certToPEM encodes certificates as a PEM bundle.
func certToPEM(t *testing.T, certs ...*x509.Certificate) string {
	t.Helper()
	var out []byte
	for _, cert := range certs {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})...)
	}
	return string(out)
}
