package main

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/remiblancher/qtsa/internal/tsp"
)

func loadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}

	return x509.ParseCertificate(block.Bytes)
}

func loadCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	certs, err := tsp.CertificatesFrom(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificates in %s: %w", path, err)
	}
	return certs, nil
}

func formatBool(b bool, t, f string) string {
	if b {
		return t
	}
	return f
}
