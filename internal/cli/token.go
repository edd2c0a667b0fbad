package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect the GitHub token stored on the server",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Verify the stored GitHub token",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().TestToken(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			if !res.Success {
				return errors.New("token test failed")
			}
			return nil
		},
	})
	return cmd
}
