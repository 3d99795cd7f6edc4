package main

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qtsa/internal/audit"
	qcrypto "github.com/remiblancher/qtsa/internal/crypto"
	"github.com/remiblancher/qtsa/internal/profile"
	"github.com/remiblancher/qtsa/internal/tsp"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Issue a timestamp token",
	Long: `Issue an RFC 3161 timestamp token.

The input is either a DER timestamp request (--request) or a data file
(--data), in which case a request is built locally. The output is a DER
TimeStampResp containing the signed token.

Supports all signature algorithms including post-quantum ML-DSA.

Examples:
  # Answer an incoming request
  qtsa sign --request request.tsq --cert tsa.crt --key tsa.key -o token.tsr

  # Timestamp a file directly
  qtsa sign --data file.txt --cert tsa.crt --key tsa.key -o token.tsr

  # Issue under a named profile
  qtsa sign --request request.tsq --cert tsa.crt --key tsa.key \
    --profile profiles/tsa/strict.yaml -o token.tsr`,
	RunE: runSign,
}

var (
	signRequest string
	signData    string
	signHash    string
	signCert    string
	signKey     string
	signChain   string
	signPolicy  string
	signProfile string
	signOutput  string
)

func init() {
	signCmd.Flags().StringVar(&signRequest, "request", "", "Timestamp request file (DER)")
	signCmd.Flags().StringVar(&signData, "data", "", "Data file to timestamp (alternative to --request)")
	signCmd.Flags().StringVar(&signHash, "hash", "sha256", "Hash algorithm when using --data")
	signCmd.Flags().StringVar(&signCert, "cert", "", "TSA certificate (PEM, required)")
	signCmd.Flags().StringVar(&signKey, "key", "", "TSA private key (PEM, required)")
	signCmd.Flags().StringVar(&signChain, "chain", "", "Additional chain certificates to include (PEM)")
	signCmd.Flags().StringVar(&signPolicy, "policy", "1.3.6.1.4.1.57264.1.1", "Default TSA policy OID")
	signCmd.Flags().StringVar(&signProfile, "profile", "", "Issuing profile (YAML)")
	signCmd.Flags().StringVarP(&signOutput, "out", "o", "", "Output file (required)")
	_ = signCmd.MarkFlagRequired("cert")
	_ = signCmd.MarkFlagRequired("key")
	_ = signCmd.MarkFlagRequired("out")
}

func runSign(cmd *cobra.Command, args []string) error {
	req, prof, err := signInput()
	if err != nil {
		return err
	}

	cert, err := loadCertificate(signCert)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	signer, err := qcrypto.LoadPrivateKey(signKey)
	if err != nil {
		return fmt.Errorf("failed to load private key: %w", err)
	}

	factory := &tsp.ResponseFactory{
		GenTime:      time.Now().UTC(),
		SerialNumber: newTokenSerial(),
	}
	if prof != nil {
		if !prof.AllowsDigest(req.HashAlgorithm()) {
			return fmt.Errorf("profile %s does not accept digest %s", prof.Name, req.HashAlgorithm().Name())
		}
		if err := prof.Configure(factory, filepath.Dir(signProfile)); err != nil {
			return fmt.Errorf("failed to apply profile: %w", err)
		}
	} else {
		if err := factory.SetDefaultPolicyID(signPolicy); err != nil {
			return fmt.Errorf("invalid policy OID: %w", err)
		}
	}

	if signChain != "" {
		chain, err := loadCertificates(signChain)
		if err != nil {
			return err
		}
		factory.AdditionalCerts = append(factory.AdditionalCerts, chain...)
	}

	token, err := factory.CreateTimestamp(signer, cert, req)
	if err != nil {
		_ = audit.Log(audit.NewEvent(audit.EventTSASign, audit.ResultFailure).
			WithObject(audit.Object{Type: "request"}).
			WithContext(audit.Context{Reason: err.Error()}))
		return fmt.Errorf("failed to create token: %w", err)
	}

	respData, err := token.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := os.WriteFile(signOutput, respData, 0644); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}

	_ = audit.Log(audit.NewEvent(audit.EventTSASign, audit.ResultSuccess).
		WithObject(audit.Object{
			Type:    "token",
			Serial:  token.SerialNumber().String(),
			Subject: cert.Subject.CommonName,
			Path:    signOutput,
		}).
		WithContext(audit.Context{
			Policy:    token.PolicyID(),
			Algorithm: req.HashAlgorithm().Name(),
			GenTime:   token.GenTime().Format(time.RFC3339),
		}))

	fmt.Printf("Timestamp token created:\n")
	fmt.Printf("  Serial:  %s\n", token.SerialNumber())
	fmt.Printf("  Time:    %s\n", token.GenTime().Format(time.RFC3339))
	fmt.Printf("  Policy:  %s\n", token.PolicyID())
	fmt.Printf("  Hash:    %s\n", req.HashAlgorithm().Name())
	fmt.Printf("  Output:  %s\n", signOutput)

	return nil
}

// signInput builds the request from --request or --data and loads the
// issuing profile if one was named.
func signInput() (*tsp.Request, *profile.Profile, error) {
	var prof *profile.Profile
	if signProfile != "" {
		p, err := profile.Load(signProfile)
		if err != nil {
			return nil, nil, err
		}
		prof = p
	}

	if signRequest != "" {
		raw, err := os.ReadFile(signRequest)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read request file: %w", err)
		}
		req, err := tsp.ParseRequest(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse request: %w", err)
		}
		return req, prof, nil
	}

	if signData == "" {
		return nil, nil, fmt.Errorf("either --request or --data is required")
	}

	data, err := os.ReadFile(signData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read data file: %w", err)
	}

	req := tsp.NewRequest()
	if err := req.SetHashAlgorithm(signHash); err != nil {
		return nil, nil, err
	}
	digest, err := tsp.ComputeImprint(req.HashAlgorithm(), data)
	if err != nil {
		return nil, nil, err
	}
	if err := req.SetMessageImprint(digest); err != nil {
		return nil, nil, err
	}
	return req, prof, nil
}

// newTokenSerial draws a random 64-bit serial.
func newTokenSerial() *big.Int {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil || serial.Sign() == 0 {
		return big.NewInt(time.Now().UnixNano())
	}
	return serial
}
