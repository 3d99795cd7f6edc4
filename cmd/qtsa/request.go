package main

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qtsa/internal/audit"
	"github.com/remiblancher/qtsa/internal/tsp"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Create a timestamp request",
	Long: `Create an RFC 3161 timestamp request for a file.

The request can be sent to a TSA to obtain a timestamp token.

Examples:
  # Create request with SHA-256 hash
  qtsa request --data file.txt -o request.tsq

  # Create request with SHA-512 hash and a random nonce
  qtsa request --data file.txt --hash sha512 --nonce -o request.tsq

  # Request without certificate inclusion
  qtsa request --data file.txt --no-cert-req -o request.tsq`,
	RunE: runRequest,
}

var (
	requestData   string
	requestHash   string
	requestPolicy string
	requestNonce  bool
	requestNoCert bool
	requestOutput string
)

func init() {
	requestCmd.Flags().StringVar(&requestData, "data", "", "File to timestamp (required)")
	requestCmd.Flags().StringVar(&requestHash, "hash", "sha256", "Hash algorithm (sha1, sha256, sha384, sha512, sha3-256, sha3-384, sha3-512)")
	requestCmd.Flags().StringVar(&requestPolicy, "policy", "", "Request a specific TSA policy OID")
	requestCmd.Flags().BoolVar(&requestNonce, "nonce", false, "Include random nonce")
	requestCmd.Flags().BoolVar(&requestNoCert, "no-cert-req", false, "Do not ask the TSA to include its certificate")
	requestCmd.Flags().StringVarP(&requestOutput, "out", "o", "", "Output file (required)")
	_ = requestCmd.MarkFlagRequired("data")
	_ = requestCmd.MarkFlagRequired("out")
}

func runRequest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(requestData)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	req := tsp.NewRequest()
	if err := req.SetHashAlgorithm(requestHash); err != nil {
		return err
	}

	digest, err := tsp.ComputeImprint(req.HashAlgorithm(), data)
	if err != nil {
		return fmt.Errorf("failed to compute imprint: %w", err)
	}
	if err := req.SetMessageImprint(digest); err != nil {
		return err
	}

	if requestPolicy != "" {
		if err := req.SetPolicyID(requestPolicy); err != nil {
			return err
		}
	}

	var nonce *big.Int
	if requestNonce {
		nonce, err = rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
		if err != nil {
			return fmt.Errorf("failed to generate nonce: %w", err)
		}
		if err := req.SetNonce(nonce); err != nil {
			return err
		}
	}

	req.SetCertRequested(!requestNoCert)

	reqData, err := req.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := os.WriteFile(requestOutput, reqData, 0644); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	_ = audit.Log(audit.NewEvent(audit.EventTSARequest, audit.ResultSuccess).
		WithObject(audit.Object{
			Type: "request",
			Path: requestOutput,
		}).
		WithContext(audit.Context{
			Algorithm: req.HashAlgorithm().Name(),
			Policy:    requestPolicy,
		}))

	fmt.Printf("Timestamp request written to %s\n", requestOutput)
	fmt.Printf("  Hash:  %s\n", req.HashAlgorithm().Name())
	if requestNonce {
		fmt.Printf("  Nonce: %d\n", nonce)
	}

	return nil
}
