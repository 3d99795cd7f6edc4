package tsp

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"math/big"
	"testing"

	qcrypto "github.com/remiblancher/qtsa/internal/crypto"
)

// =============================================================================
// Request Construction Tests
// =============================================================================

func TestU_Request_Defaults(t *testing.T) {
	req := NewRequest()

	if req.Version() != 1 {
		t.Errorf("Expected version 1, got %d", req.Version())
	}
	if !req.CertRequested() {
		t.Error("Expected certificate inclusion to default to true")
	}
	if req.Nonce() != nil {
		t.Error("Expected no nonce by default")
	}
	if req.PolicyID() != "" {
		t.Errorf("Expected no policy by default, got %s", req.PolicyID())
	}
}

func TestU_Request_SetHashAlgorithm(t *testing.T) {
	req := NewRequest()

	for _, name := range []string{"SHA1", "sha256", "SHA-384", "sha_512", "SHA3-256"} {
		if err := req.SetHashAlgorithm(name); err != nil {
			t.Errorf("SetHashAlgorithm(%q) failed: %v", name, err)
		}
	}

	if err := req.SetHashAlgorithm("MD5"); err == nil {
		t.Error("Expected error for unsupported algorithm")
	} else if !errors.Is(err, ErrInvalidAlgorithm) {
		t.Errorf("Expected ErrInvalidAlgorithm, got %v", err)
	}

	// By OID
	if err := req.SetHashAlgorithm("2.16.840.1.101.3.4.2.1"); err != nil {
		t.Errorf("SetHashAlgorithm by OID failed: %v", err)
	}
	if req.HashAlgorithm().Name() != "SHA256" {
		t.Errorf("Expected SHA256, got %s", req.HashAlgorithm().Name())
	}
}

func TestU_Request_SetMessageImprint_Empty(t *testing.T) {
	req := NewRequest()
	if err := req.SetMessageImprint(nil); err == nil {
		t.Error("Expected error for empty imprint")
	}
	if err := req.SetMessageImprint([]byte{}); err == nil {
		t.Error("Expected error for zero-length imprint")
	}
}

func TestU_Request_SetNonce(t *testing.T) {
	req := NewRequest()

	if err := req.SetNonce(nil); err == nil {
		t.Error("Expected error for nil nonce")
	}

	nonce := big.NewInt(42)
	if err := req.SetNonce(nonce); err != nil {
		t.Fatalf("SetNonce failed: %v", err)
	}

	// The request must hold a copy, not the caller's value.
	nonce.SetInt64(99)
	if req.Nonce().Cmp(big.NewInt(42)) != 0 {
		t.Error("Nonce was aliased to the caller's big.Int")
	}
}

func TestU_Request_Reassignment(t *testing.T) {
	data := []byte("hello world")
	req := newTestRequest(t, "SHA256", data)

	if err := req.SetNonce(big.NewInt(42)); err != nil {
		t.Fatalf("SetNonce failed: %v", err)
	}
	if err := req.SetNonce(big.NewInt(24)); err != nil {
		t.Fatalf("Nonce re-assignment failed: %v", err)
	}
	if req.Nonce().Cmp(big.NewInt(24)) != 0 {
		t.Errorf("Expected nonce 24, got %s", req.Nonce())
	}

	// Switching the digest keeps the request marshalable.
	if err := req.SetHashAlgorithm("SHA512"); err != nil {
		t.Fatalf("Hash re-assignment failed: %v", err)
	}
	imprint, err := ComputeImprint(req.HashAlgorithm(), data)
	if err != nil {
		t.Fatalf("ComputeImprint failed: %v", err)
	}
	if err := req.SetMessageImprint(imprint); err != nil {
		t.Fatalf("Imprint re-assignment failed: %v", err)
	}

	encoded, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal after re-assignment failed: %v", err)
	}

	parsed, err := ParseRequest(encoded)
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if parsed.HashAlgorithm().Name() != "SHA512" {
		t.Errorf("Expected SHA512, got %s", parsed.HashAlgorithm().Name())
	}
	if parsed.Nonce().Cmp(big.NewInt(24)) != 0 {
		t.Errorf("Expected nonce 24, got %s", parsed.Nonce())
	}
}

// =============================================================================
// Marshal Tests
// =============================================================================

func TestU_Request_Marshal_MissingFields(t *testing.T) {
	req := NewRequest()
	if _, err := req.Marshal(); !errors.Is(err, ErrMissingHashAlgorithm) {
		t.Errorf("Expected ErrMissingHashAlgorithm, got %v", err)
	}

	if err := req.SetHashAlgorithm("SHA256"); err != nil {
		t.Fatalf("SetHashAlgorithm failed: %v", err)
	}
	if _, err := req.Marshal(); !errors.Is(err, ErrMissingMessageImprint) {
		t.Errorf("Expected ErrMissingMessageImprint, got %v", err)
	}

	var terr *TimestampError
	_, err := req.Marshal()
	if !errors.As(err, &terr) {
		t.Errorf("Expected TimestampError, got %T", err)
	}
}

func TestU_Request_RoundTrip(t *testing.T) {
	req := newTestRequest(t, "SHA256", []byte("test data"))
	if err := req.SetPolicyID("1.2.3.4.5"); err != nil {
		t.Fatalf("SetPolicyID failed: %v", err)
	}
	if err := req.SetNonce(big.NewInt(12345)); err != nil {
		t.Fatalf("SetNonce failed: %v", err)
	}
	req.SetCertRequested(false)

	encoded, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	parsed, err := ParseRequest(encoded)
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}

	if parsed.Version() != 1 {
		t.Errorf("Expected version 1, got %d", parsed.Version())
	}
	if parsed.HashAlgorithm().Name() != "SHA256" {
		t.Errorf("Expected SHA256, got %s", parsed.HashAlgorithm().Name())
	}
	if !bytes.Equal(parsed.MessageImprint(), req.MessageImprint()) {
		t.Error("Message imprint mismatch after round trip")
	}
	if parsed.PolicyID() != "1.2.3.4.5" {
		t.Errorf("Expected policy 1.2.3.4.5, got %s", parsed.PolicyID())
	}
	if parsed.Nonce().Cmp(big.NewInt(12345)) != 0 {
		t.Error("Nonce mismatch after round trip")
	}
	if parsed.CertRequested() {
		t.Error("Expected CertReq false after round trip")
	}
}

// =============================================================================
// Parse Tests
// =============================================================================

func TestU_Request_Parse_InvalidVersion(t *testing.T) {
	hash := sha256.Sum256([]byte("test"))
	wire := TimeStampReq{
		Version: 2,
		MessageImprint: MessageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: qcrypto.OIDSHA256},
			HashedMessage: hash[:],
		},
	}

	encoded, _ := asn1.Marshal(wire)
	if _, err := ParseRequest(encoded); err == nil {
		t.Error("Expected error for unsupported version")
	}
}

func TestU_Request_Parse_UnsupportedHash(t *testing.T) {
	wire := TimeStampReq{
		Version: 1,
		MessageImprint: MessageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 2, 3, 4}},
			HashedMessage: []byte{1, 2, 3, 4},
		},
	}

	encoded, _ := asn1.Marshal(wire)
	_, err := ParseRequest(encoded)
	if !errors.Is(err, ErrInvalidAlgorithm) {
		t.Errorf("Expected ErrInvalidAlgorithm, got %v", err)
	}
}

func TestU_Request_Parse_HashLengthMismatch(t *testing.T) {
	wire := TimeStampReq{
		Version: 1,
		MessageImprint: MessageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: qcrypto.OIDSHA256},
			HashedMessage: []byte{1, 2, 3}, // SHA-256 needs 32 bytes
		},
	}

	encoded, _ := asn1.Marshal(wire)
	if _, err := ParseRequest(encoded); err == nil {
		t.Error("Expected error for truncated imprint")
	}
}

func TestU_Request_Parse_TrailingData(t *testing.T) {
	req := newTestRequest(t, "SHA256", []byte("test"))
	encoded, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if _, err := ParseRequest(append(encoded, 0x00)); err == nil {
		t.Error("Expected error for trailing data")
	}
}

func TestU_Request_FromWire_Nil(t *testing.T) {
	if _, err := RequestFromWire(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestU_Request_Getters_Copy(t *testing.T) {
	req := newTestRequest(t, "SHA256", []byte("test"))

	imprint := req.MessageImprint()
	imprint[0] ^= 0xFF
	if bytes.Equal(imprint, req.MessageImprint()) {
		t.Error("MessageImprint getter exposed internal state")
	}
}
