// Package cmd provides the CLI commands for busdesk.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xetiic/busdesk/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "busdesk",
	Short: "busdesk - Xetiic admin dashboard terminal client",
	Long: `busdesk is a terminal client for the Xetiic bus ticketing admin dashboard.

It maintains a signed-in session across invocations, persisted under
~/.busdesk/, and gates dashboard views by role, permission, and scope.

Quick start:
  1. busdesk login --email admin@xetiic.com --password admin123
  2. busdesk whoami
  3. busdesk check --permission routes.write --path /routes

Configuration:
  Config is loaded from busdesk.yaml in the current directory,
  $HOME/.busdesk/, or /etc/busdesk/.

  Environment variables can override config values with the BUSDESK_ prefix.
  Example: BUSDESK_AUTH_MODE=remote BUSDESK_API_BASE_URL=https://api.xetiic.com

Commands:
  login       Sign in with email and password
  register    Create an account and sign in
  logout      Sign out and clear the persisted session
  whoami      Print the current session
  refresh     Exchange the session token for a fresh one
  update      Update the signed-in profile
  check       Evaluate an access requirement against the session
  watch       Stream session changes (and serve metrics)
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./busdesk.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
