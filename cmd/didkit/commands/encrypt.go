package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"didkit/jose"
)

func encryptCmd() *cobra.Command {
	var recipients []string
	cmd := &cobra.Command{
		Use:   "encrypt <message>",
		Short: "Encrypt a message to DID recipients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(recipients) == 0 {
				return fmt.Errorf("at least one --to recipient required")
			}
			ctx := cmd.Context()
			if err := bindProvider(ctx); err != nil {
				return err
			}
			jwe, err := appDID.CreateJWE(ctx, []byte(args[0]), recipients)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(jwe, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&recipients, "to", nil, "recipient DID (repeatable)")
	return cmd
}

func decryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt an envelope (JSON on stdin) addressed to the local identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			var jwe jose.JWE
			if err := json.Unmarshal(raw, &jwe); err != nil {
				return fmt.Errorf("parse envelope: %w", err)
			}

			ctx := cmd.Context()
			if err := bindProvider(ctx); err != nil {
				return err
			}
			if _, err := appDID.Authenticate(ctx); err != nil {
				return err
			}
			cleartext, err := appDID.DecryptJWE(ctx, jwe)
			if err != nil {
				return err
			}
			fmt.Println(string(cleartext))
			return nil
		},
	}
}
