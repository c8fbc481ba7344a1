package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func signCmd() *cobra.Command {
	var dag bool
	cmd := &cobra.Command{
		Use:   "sign <payload>",
		Short: "Authenticate and sign a payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := bindProvider(ctx); err != nil {
				return err
			}
			if _, err := appDID.Authenticate(ctx); err != nil {
				return err
			}

			var payload any = args[0]
			var decoded map[string]any
			if err := json.Unmarshal([]byte(args[0]), &decoded); err == nil {
				payload = decoded
			}

			if dag {
				res, err := appDID.CreateDagJWS(ctx, payload)
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(res.JWS, "", "  ")
				if err != nil {
					return err
				}
				fmt.Printf("%s\nLink: %s\n", out, res.JWS.Link)
				return nil
			}

			jws, err := appDID.CreateJWS(ctx, payload)
			if err != nil {
				return err
			}
			compact, err := jws.Compact()
			if err != nil {
				return err
			}
			fmt.Println(compact)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dag, "dag", false, "sign a content-addressed link to the payload")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <compact-jws>",
		Short: "Verify a compact signed envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := appDID.VerifyJWSString(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Verified.\nkid: %s\n", res.Kid)
			if res.Payload != nil {
				out, err := json.MarshalIndent(res.Payload, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			}
			return nil
		},
	}
}
