package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qtsa/internal/tsp"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Display a timestamp request or token",
	Long: `Display detailed information about a timestamp request or token.

The file is parsed as a DER TimeStampResp first, then as a TimeStampReq.

Examples:
  qtsa inspect token.tsr
  qtsa inspect request.tsq`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if token, err := tsp.ParseToken(raw); err == nil {
		printToken(token)
		return nil
	}

	req, err := tsp.ParseRequest(raw)
	if err != nil {
		return fmt.Errorf("file is neither a timestamp response nor a request: %w", err)
	}
	printRequest(req)
	return nil
}

func printRequest(req *tsp.Request) {
	fmt.Println("Timestamp Request:")
	fmt.Printf("  Version:   %d\n", req.Version())
	fmt.Printf("  Hash Alg:  %s\n", req.HashAlgorithm().Name())
	fmt.Printf("  Imprint:   %s\n", hex.EncodeToString(req.MessageImprint()))
	if req.PolicyID() != "" {
		fmt.Printf("  Policy:    %s\n", req.PolicyID())
	}
	if nonce := req.Nonce(); nonce != nil {
		fmt.Printf("  Nonce:     %s\n", nonce)
	}
	fmt.Printf("  Cert Req:  %v\n", req.CertRequested())
}

func printToken(token *tsp.Token) {
	fmt.Println("Timestamp Response:")
	fmt.Printf("  Status:       %s\n", tsp.StatusText(token.Status))
	if !token.IsGranted() {
		fmt.Printf("  Failure:      %s\n", token.FailureString())
		return
	}

	info := token.Info

	fmt.Println("\nTimestamp Token:")
	fmt.Printf("  Version:      %d\n", info.Version)
	fmt.Printf("  Serial:       %s\n", info.SerialNumber)
	fmt.Printf("  Gen Time:     %s\n", info.GenTime.Format(time.RFC3339))
	fmt.Printf("  Policy:       %s\n", info.Policy)

	if alg, err := token.HashAlgorithm(); err == nil {
		fmt.Printf("  Hash Alg:     %s\n", alg.Name())
	}
	fmt.Printf("  Imprint:      %s\n", hex.EncodeToString(token.MessageImprint()))

	if !info.Accuracy.IsZero() {
		fmt.Printf("  Accuracy:     %ds %dms %dus\n", info.Accuracy.Seconds, info.Accuracy.Millis, info.Accuracy.Micros)
	}
	fmt.Printf("  Ordering:     %v\n", info.Ordering)
	if info.Nonce != nil {
		fmt.Printf("  Nonce:        %s\n", info.Nonce)
	}

	if token.SignerCert != nil {
		fmt.Printf("  Signer:       %s\n", token.SignerCert.Subject.CommonName)
		fmt.Printf("  Issuer:       %s\n", token.SignerCert.Issuer.CommonName)
	}
	if certs, err := token.Certificates(); err == nil && len(certs) > 0 {
		fmt.Printf("  Certificates: %d included\n", len(certs))
	}
}
