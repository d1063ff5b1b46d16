package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xetiic/busdesk/internal/domain/auth"
	"github.com/xetiic/busdesk/internal/domain/session"
)

var loginEmail, loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.manager.Login(ctx, auth.Credentials{
			Email:    loginEmail,
			Password: loginPassword,
		})
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		printSession(a.manager.Snapshot())
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "sign-in email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(loginCmd)
}

// printSession renders a session snapshot for humans.
func printSession(snap session.Session) {
	if snap.IsLoading {
		fmt.Println("session: loading")
		return
	}
	if !snap.IsAuthenticated {
		fmt.Println("not signed in")
		return
	}
	u := snap.User
	fmt.Printf("signed in as %s <%s>\n", u.FullName(), u.Email)
	fmt.Printf("  role:        %s\n", u.Role)
	if u.CompanyID != "" {
		fmt.Printf("  company:     %s\n", u.CompanyID)
	}
	if len(u.Permissions) > 0 {
		names := make([]string, len(u.Permissions))
		for i, p := range u.Permissions {
			names[i] = string(p)
		}
		fmt.Printf("  permissions: %s\n", strings.Join(names, ", "))
	}
	fmt.Printf("  token:       %s…\n", tokenPrefix(snap.Token))
}

// tokenPrefix returns the first few token characters for display.
// The full token never hits stdout.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
