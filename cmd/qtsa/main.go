// Command qtsa is the CLI tool for the RFC 3161 timestamping toolkit.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qtsa/internal/audit"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var auditLogPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qtsa",
	Short: "RFC 3161 timestamping toolkit",
	Long: `qtsa is a command-line tool for RFC 3161 trusted timestamping.

It creates timestamp requests, issues timestamp tokens as a Timestamping
Authority (TSA), and verifies tokens against a trust anchor.

Supported signature algorithms:
  Classical: ECDSA (P-256, P-384, P-521), Ed25519, RSA (2048, 4096)
  PQC:       ML-DSA-44, ML-DSA-65, ML-DSA-87 (FIPS 204)

Examples:
  # Create a timestamp request for a file
  qtsa request --data file.txt --hash sha256 --nonce -o request.tsq

  # Issue a token for a request
  qtsa sign --request request.tsq --cert tsa.crt --key tsa.key -o token.tsr

  # Verify a token
  qtsa verify token.tsr --data file.txt --ca root.crt`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check for audit log path from environment if not set via flag
		if auditLogPath == "" {
			auditLogPath = os.Getenv("QTSA_AUDIT_LOG")
		}

		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set QTSA_AUDIT_LOG env var)")

	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(auditCmd)
}
