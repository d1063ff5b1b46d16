package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xetiic/busdesk/internal/domain/session"
)

var updateFirstName, updateLastName, updateEmail string

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the signed-in profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.manager.Snapshot().IsAuthenticated {
			return fmt.Errorf("not signed in")
		}

		var patch session.IdentityPatch
		if cmd.Flags().Changed("first-name") {
			patch.FirstName = &updateFirstName
		}
		if cmd.Flags().Changed("last-name") {
			patch.LastName = &updateLastName
		}
		if cmd.Flags().Changed("email") {
			patch.Email = &updateEmail
		}

		if err := a.manager.UpdateUser(patch); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		printSession(a.manager.Snapshot())
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateFirstName, "first-name", "", "new first name")
	updateCmd.Flags().StringVar(&updateLastName, "last-name", "", "new last name")
	updateCmd.Flags().StringVar(&updateEmail, "email", "", "new email address")
	rootCmd.AddCommand(updateCmd)
}
