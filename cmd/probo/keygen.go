package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/probo/internal/services/secure"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an encryption key for secure export",
	Long: `Generates a base64-encoded AES-256 key for field encryption. Store it in
the configured key environment variable or key file.`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	key, err := secure.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Println(key)
	fmt.Printf("\n  export %s=%s\n", config.Secure.KeyEnv, key)
	return nil
}
