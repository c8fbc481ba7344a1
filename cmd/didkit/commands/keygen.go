package commands

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"didkit/provider"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a local provider seed and store it encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if keys.Exists() {
				return fmt.Errorf("a seed already exists under %s", home)
			}
			seed := make([]byte, 32)
			if _, err := rand.Read(seed); err != nil {
				return err
			}
			if err := keys.SaveSeed(passphrase, seed); err != nil {
				return err
			}
			kp, err := provider.NewKeyProvider(seed)
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nDID: %s\nEncryption DID: %s\n", kp.DID(), kp.EncryptionDID())
			return nil
		},
	}
}

func idCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the local signing and encryption DIDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := localProvider()
			if err != nil {
				return err
			}
			fmt.Printf("DID: %s\nEncryption DID: %s\n", kp.DID(), kp.EncryptionDID())
			return nil
		},
	}
}
