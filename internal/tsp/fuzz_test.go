package tsp

import (
	"testing"
)

// FuzzParseRequest tests that parsing arbitrary request data doesn't panic.
func FuzzParseRequest(f *testing.F) {
	// Seed corpus with valid and edge case inputs
	f.Add([]byte{0x30, 0x00})                   // Empty SEQUENCE
	f.Add([]byte{0x30, 0x03, 0x02, 0x01, 0x01}) // SEQUENCE with version
	f.Add([]byte{0x30, 0x80})                   // Indefinite length
	f.Add([]byte{0x00, 0x00, 0x00, 0x00})       // Null bytes
	f.Add([]byte{0xff, 0xff, 0xff, 0xff})       // All 1s

	f.Fuzz(func(t *testing.T, data []byte) {
		// ParseRequest should not panic regardless of input
		_, _ = ParseRequest(data)
	})
}

// FuzzParseToken tests that parsing arbitrary response data doesn't panic.
func FuzzParseToken(f *testing.F) {
	// Seed corpus
	f.Add([]byte{0x30, 0x00})
	f.Add([]byte{0x30, 0x05, 0x30, 0x03, 0x02, 0x01, 0x00})
	f.Add([]byte{0x30, 0x80})
	f.Add([]byte{0x00, 0x00, 0x00, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = ParseToken(data)
	})
}

// FuzzResolveDigestAlgorithm tests name/OID resolution on arbitrary strings.
func FuzzResolveDigestAlgorithm(f *testing.F) {
	f.Add("SHA256")
	f.Add("2.16.840.1.101.3.4.2.1")
	f.Add("")
	f.Add("....")
	f.Add("sha-999")

	f.Fuzz(func(t *testing.T, name string) {
		_, _ = ResolveDigestAlgorithm(name)
	})
}
