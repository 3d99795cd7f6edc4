package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qtsa/internal/audit"
	"github.com/remiblancher/qtsa/internal/tsp"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <token-file>",
	Short: "Verify a timestamp token",
	Long: `Verify an RFC 3161 timestamp token.

Verifies:
  - The token signature is valid
  - The signer certificate chains to a trusted root
  - The signer certificate is authorized for timestamping
  - The data hash and nonce match the request (if --data/--request provided)

Examples:
  # Verify token against original data
  qtsa verify token.tsr --data file.txt --ca root.crt

  # Verify token against the original request
  qtsa verify token.tsr --request request.tsq --ca root.crt

  # Supply untrusted intermediates
  qtsa verify token.tsr --data file.txt --ca root.crt --intermediates ica.crt`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var (
	verifyData          string
	verifyRequest       string
	verifyHash          string
	verifyCA            string
	verifyIntermediates string
)

func init() {
	verifyCmd.Flags().StringVar(&verifyData, "data", "", "Original data file")
	verifyCmd.Flags().StringVar(&verifyRequest, "request", "", "Original request file (DER)")
	verifyCmd.Flags().StringVar(&verifyHash, "hash", "", "Hash algorithm when using --data (default: token's algorithm)")
	verifyCmd.Flags().StringVar(&verifyCA, "ca", "", "Trusted CA certificate(s), PEM (required)")
	verifyCmd.Flags().StringVar(&verifyIntermediates, "intermediates", "", "Untrusted intermediate certificate(s), PEM")
	_ = verifyCmd.MarkFlagRequired("ca")
}

func runVerify(cmd *cobra.Command, args []string) error {
	tokenPath := args[0]

	raw, err := os.ReadFile(tokenPath)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token, err := tsp.ParseToken(raw)
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.IsGranted() {
		return fmt.Errorf("token status: %s - %s", tsp.StatusText(token.Status), token.FailureString())
	}

	req, err := verifyReference(token)
	if err != nil {
		return err
	}

	trusted, err := os.ReadFile(verifyCA)
	if err != nil {
		return fmt.Errorf("failed to read CA file: %w", err)
	}

	var untrusted []any
	if verifyIntermediates != "" {
		inter, err := os.ReadFile(verifyIntermediates)
		if err != nil {
			return fmt.Errorf("failed to read intermediates: %w", err)
		}
		untrusted = append(untrusted, inter)
	}

	verr := tsp.Verify(token, req, trusted, untrusted...)

	_ = audit.Log(audit.NewEvent(audit.EventTSAVerify, auditResult(verr)).
		WithObject(audit.Object{
			Type:   "token",
			Serial: token.SerialNumber().String(),
			Path:   tokenPath,
		}).
		WithContext(audit.Context{
			Policy:   token.PolicyID(),
			GenTime:  token.GenTime().Format(time.RFC3339),
			Verified: verr == nil,
			Reason:   auditReason(verr),
		}))

	if verr != nil {
		var cve *tsp.CertificateValidationError
		if errors.As(verr, &cve) {
			return fmt.Errorf("certificate chain not trusted: %w", cve)
		}
		return fmt.Errorf("verification failed: %w", verr)
	}

	fmt.Println("Timestamp Token Verification:")
	fmt.Printf("  Status:  VALID\n")
	fmt.Printf("  Serial:  %s\n", token.SerialNumber())
	fmt.Printf("  Time:    %s\n", token.GenTime().Format(time.RFC3339))
	fmt.Printf("  Policy:  %s\n", token.PolicyID())
	if token.SignerCert != nil {
		fmt.Printf("  Signer:  %s\n", token.SignerCert.Subject.CommonName)
		fmt.Printf("  Issuer:  %s\n", token.SignerCert.Issuer.CommonName)
	}

	return nil
}

// verifyReference rebuilds the request the token is checked against. With
// --request the original request is used, nonce included. With --data a
// request is recomputed from the file using the token's own algorithm
// unless --hash overrides it.
func verifyReference(token *tsp.Token) (*tsp.Request, error) {
	if verifyRequest != "" {
		raw, err := os.ReadFile(verifyRequest)
		if err != nil {
			return nil, fmt.Errorf("failed to read request file: %w", err)
		}
		req, err := tsp.ParseRequest(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse request: %w", err)
		}
		return req, nil
	}

	if verifyData == "" {
		return nil, fmt.Errorf("either --data or --request is required")
	}

	data, err := os.ReadFile(verifyData)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var alg tsp.DigestAlgorithm
	if verifyHash != "" {
		alg, err = tsp.ResolveDigestAlgorithm(verifyHash)
		if err != nil {
			return nil, err
		}
	} else {
		alg, err = token.HashAlgorithm()
		if err != nil {
			return nil, fmt.Errorf("token has unknown hash algorithm: %w", err)
		}
	}

	req := tsp.NewRequest()
	if err := req.SetHashAlgorithm(alg.Name()); err != nil {
		return nil, err
	}
	digest, err := tsp.ComputeImprint(alg, data)
	if err != nil {
		return nil, err
	}
	if err := req.SetMessageImprint(digest); err != nil {
		return nil, err
	}
	return req, nil
}

func auditResult(err error) audit.Result {
	if err != nil {
		return audit.ResultFailure
	}
	return audit.ResultSuccess
}

func auditReason(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
