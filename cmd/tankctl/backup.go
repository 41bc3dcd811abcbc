package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/spf13/cobra"
)

var (
	inPath     string
	outPath    string
	passphrase string
)

func init() {
	decryptCmd.Flags().StringVar(&inPath, "in", "", "Encrypted backup file (.zip.enc)")
	decryptCmd.Flags().StringVar(&outPath, "out", "", "Where to write the decrypted zip")
	decryptCmd.Flags().StringVar(&passphrase, "passphrase", os.Getenv("BACKUP_PASSPHRASE"), "Backup passphrase")
	_ = decryptCmd.MarkFlagRequired("in")
	_ = decryptCmd.MarkFlagRequired("out")

	verifyCmd.Flags().StringVar(&inPath, "in", "", "Backup file (.zip or .zip.enc)")
	verifyCmd.Flags().StringVar(&passphrase, "passphrase", os.Getenv("BACKUP_PASSPHRASE"), "Backup passphrase, needed for .enc files")
	_ = verifyCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(decryptCmd)
	rootCmd.AddCommand(verifyCmd)
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt an encrypted backup into a plain zip",
	RunE: func(cmd *cobra.Command, args []string) error {
		zipBytes, err := readBackup(inPath, passphrase)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, zipBytes, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", outPath, len(zipBytes))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that a backup restores to a healthy database",
	RunE: func(cmd *cobra.Command, args []string) error {
		zipBytes, err := readBackup(inPath, passphrase)
		if err != nil {
			return err
		}
		if err := backup.VerifyArchive(cmd.Context(), zipBytes, ""); err != nil {
			return fmt.Errorf("backup %s is not healthy: %w", inPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s passed integrity check\n", inPath)
		return nil
	},
}

// readBackup returns the zip bytes of a backup file, decrypting .enc files.
func readBackup(path, pass string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".enc") {
		return data, nil
	}
	if pass == "" {
		return nil, fmt.Errorf("%s is encrypted, pass --passphrase or set BACKUP_PASSPHRASE", path)
	}
	zipBytes, err := backup.DecryptBlob(pass, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", path, err)
	}
	return zipBytes, nil
}
