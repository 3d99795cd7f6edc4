package tsp

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
)

// CertificatesFrom normalizes a certificate source into a list of parsed
// certificates. Accepted forms: *x509.Certificate, []*x509.Certificate,
// a PEM string, PEM or DER bytes, an io.Reader yielding PEM content, and
// slices mixing any of these. Every trust input to Verify goes through this
// one function before chain logic runs.
func CertificatesFrom(src any) ([]*x509.Certificate, error) {
	switch v := src.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil certificate source", ErrInvalidArgument)
	case *x509.Certificate:
		if v == nil {
			return nil, fmt.Errorf("%w: nil certificate", ErrInvalidArgument)
		}
		return []*x509.Certificate{v}, nil
	case []*x509.Certificate:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty certificate list", ErrInvalidArgument)
		}
		certs := make([]*x509.Certificate, 0, len(v))
		for _, cert := range v {
			if cert == nil {
				return nil, fmt.Errorf("%w: nil certificate in list", ErrInvalidArgument)
			}
			certs = append(certs, cert)
		}
		return certs, nil
	case []byte:
		return parseCertificateBytes(v)
	case string:
		return parseCertificateBytes([]byte(v))
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate source: %w", err)
		}
		return parseCertificateBytes(data)
	case []any:
		var certs []*x509.Certificate
		for _, item := range v {
			parsed, err := CertificatesFrom(item)
			if err != nil {
				return nil, err
			}
			certs = append(certs, parsed...)
		}
		if len(certs) == 0 {
			return nil, fmt.Errorf("%w: empty certificate list", ErrInvalidArgument)
		}
		return certs, nil
	default:
		return nil, fmt.Errorf("%w: unsupported certificate source type %T", ErrInvalidArgument, src)
	}
}

// parseCertificateBytes parses one or more certificates from PEM data,
// falling back to raw DER when no PEM blocks are present.
func parseCertificateBytes(data []byte) ([]*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty certificate data", ErrInvalidArgument)
	}

	var certs []*x509.Certificate
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) > 0 {
		return certs, nil
	}

	certs, err := x509.ParseCertificates(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate data: %w", err)
	}
	return certs, nil
}

// newCertPool builds a pool from certificates.
func newCertPool(certs []*x509.Certificate) *x509.CertPool {
	pool := x509.NewCertPool()
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return pool
}
