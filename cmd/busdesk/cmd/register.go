package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

var registerInput auth.CreateAccountInput

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.manager.Register(ctx, registerInput); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		printSession(a.manager.Snapshot())
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerInput.Email, "email", "", "sign-in email address")
	registerCmd.Flags().StringVar(&registerInput.Password, "password", "", "password (min 6 characters)")
	registerCmd.Flags().StringVar(&registerInput.FirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registerInput.LastName, "last-name", "", "last name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")
	_ = registerCmd.MarkFlagRequired("first-name")
	_ = registerCmd.MarkFlagRequired("last-name")
	rootCmd.AddCommand(registerCmd)
}
