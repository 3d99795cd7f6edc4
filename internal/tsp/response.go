package tsp

import (
	"encoding/asn1"
	"fmt"
)

// PKIStatus values (RFC 3161 Section 2.4.2). These integers are part of the
// protocol and must not be renumbered.
const (
	StatusGranted                = 0
	StatusGrantedWithMods        = 1
	StatusRejection              = 2
	StatusWaiting                = 3
	StatusRevocationWarning      = 4
	StatusRevocationNotification = 5
)

// PKIFailureInfo values (RFC 3161 Section 2.4.2).
const (
	FailBadAlg              = 0  // Unrecognized or unsupported algorithm
	FailBadRequest          = 2  // Transaction not permitted or supported
	FailBadDataFormat       = 5  // The data submitted has the wrong format
	FailTimeNotAvailable    = 14 // TSA's time source is not available
	FailUnacceptedPolicy    = 15 // The requested policy is not supported
	FailUnacceptedExtension = 16 // The requested extension is not supported
	FailAddInfoNotAvailable = 17 // The additional information requested could not be understood
	FailSystemFailure       = 25 // System failure
)

// TimeStampResp represents the timestamp response on the wire
// (RFC 3161 Section 2.4.2).
type TimeStampResp struct {
	Status         PKIStatusInfo
	TimeStampToken asn1.RawValue `asn1:"optional"`
}

// PKIStatusInfo contains the status of the request (RFC 3161 Section 2.4.2).
type PKIStatusInfo struct {
	Status       int
	StatusString []string       `asn1:"optional"`
	FailInfo     asn1.BitString `asn1:"optional"`
}

// NewRejectionToken builds a REJECTION response carrying the given failure
// bit and optional status text. Issuance through ResponseFactory never
// produces one; this covers TSAs that must answer malformed requests on the
// wire rather than dropping them.
func NewRejectionToken(failInfo int, message string) *Token {
	t := &Token{
		Status:   StatusRejection,
		FailInfo: failInfoBitString(failInfo),
	}
	if message != "" {
		t.StatusText = []string{message}
	}
	return t
}

// failInfoBitString creates a BitString with the specified failure bit set.
func failInfoBitString(bit int) asn1.BitString {
	// PKIFailureInfo is a BIT STRING with max 26 bits
	bytes := make([]byte, 4)
	byteIdx := bit / 8
	bitIdx := uint(7 - (bit % 8))
	if byteIdx < 4 {
		bytes[byteIdx] = 1 << bitIdx
	}
	length := (bit / 8) + 1
	padding := (8 - (bit%8 + 1)) % 8
	return asn1.BitString{
		Bytes:     bytes[:length],
		BitLength: length*8 - padding,
	}
}

// StatusText returns a human-readable name for a PKIStatus value.
func StatusText(status int) string {
	switch status {
	case StatusGranted:
		return "granted"
	case StatusGrantedWithMods:
		return "granted with modifications"
	case StatusRejection:
		return "rejection"
	case StatusWaiting:
		return "waiting"
	case StatusRevocationWarning:
		return "revocation warning"
	case StatusRevocationNotification:
		return "revocation notification"
	default:
		return fmt.Sprintf("unknown status %d", status)
	}
}

// FailureText returns a human-readable string for a failure bit.
func FailureText(bit int) string {
	switch bit {
	case FailBadAlg:
		return "unrecognized or unsupported algorithm"
	case FailBadRequest:
		return "transaction not permitted or supported"
	case FailBadDataFormat:
		return "data submitted has wrong format"
	case FailTimeNotAvailable:
		return "time source not available"
	case FailUnacceptedPolicy:
		return "requested policy not supported"
	case FailUnacceptedExtension:
		return "requested extension not supported"
	case FailAddInfoNotAvailable:
		return "additional information not available"
	case FailSystemFailure:
		return "system failure"
	default:
		return fmt.Sprintf("failure bit %d", bit)
	}
}

// firstFailureBit returns the lowest set bit of a PKIFailureInfo bit string,
// or -1 if none is set.
func firstFailureBit(bs asn1.BitString) int {
	for i := 0; i < bs.BitLength; i++ {
		if bs.At(i) == 1 {
			return i
		}
	}
	return -1
}
