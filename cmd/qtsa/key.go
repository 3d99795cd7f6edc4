package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	qcrypto "github.com/remiblancher/qtsa/internal/crypto"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Key management",
}

var keyGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a TSA signing key",
	Long: `Generate a private key for timestamp signing.

Supported algorithms:
  Classical: ecdsa-p256, ecdsa-p384, ecdsa-p521, ed25519, rsa-2048, rsa-4096
  PQC:       ml-dsa-44, ml-dsa-65, ml-dsa-87

Examples:
  qtsa key gen --algorithm ecdsa-p256 -o tsa.key
  qtsa key gen --algorithm ml-dsa-65 -o tsa.key`,
	RunE: runKeyGen,
}

var (
	keyGenAlgorithm string
	keyGenOutput    string
)

func init() {
	keyGenCmd.Flags().StringVar(&keyGenAlgorithm, "algorithm", "ecdsa-p256", "Key algorithm")
	keyGenCmd.Flags().StringVarP(&keyGenOutput, "out", "o", "", "Output file (required)")
	_ = keyGenCmd.MarkFlagRequired("out")

	keyCmd.AddCommand(keyGenCmd)
}

func runKeyGen(cmd *cobra.Command, args []string) error {
	key, err := qcrypto.GenerateKey(keyGenAlgorithm)
	if err != nil {
		return err
	}

	pemData, err := qcrypto.MarshalPrivateKeyPEM(key)
	if err != nil {
		return fmt.Errorf("failed to encode key: %w", err)
	}

	if err := os.WriteFile(keyGenOutput, pemData, 0600); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	fmt.Printf("Private key written to %s\n", keyGenOutput)
	fmt.Printf("  Algorithm: %s\n", keyGenAlgorithm)
	return nil
}
