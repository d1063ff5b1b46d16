package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the session token for a fresh one",
	Long: `Exchange the current session token for a fresh one.

If the exchange fails the session is terminated: a session holding a stale
token is unsafe to keep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.manager.RefreshToken(ctx); err != nil {
			return err
		}
		fmt.Printf("token refreshed: %s…\n", tokenPrefix(a.manager.Snapshot().Token))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
