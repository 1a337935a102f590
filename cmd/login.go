// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"lovmig/cli/internal/session"
)

var loginFlags credentialFlags

// loginCmd signs in with email and password.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"signin"},
	Short:   "Sign in with email and password",
	Long: `The login command signs you in to the configured auth project with your email
and password. The session is stored in the OS keychain and refreshed
automatically by later commands.

If you are already signed in, nothing is changed. Use --password-stdin to pipe
the password in non-interactive environments.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		return session.Run(ctx, a.holder.Current(), func(s *session.Synchronizer) error {
			if s.IsAuthenticated() {
				pterm.Info.Printfln("Already logged in as %s", identity(s.User()))
				return nil
			}

			email, password, err := loginFlags.read()
			if err != nil {
				return err
			}

			stop := startSpinner("Signing in")
			res := s.Login(ctx, email, password)
			stop()
			if !res.Success {
				return failed(res, "signing in", a.host())
			}
			pterm.Success.Println(loginGreeting(identity(s.User())))
			return nil
		}, a.sessionOptions()...)
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginFlags.email, "email", "", "Account email (prompted when omitted)")
	loginCmd.Flags().BoolVar(&loginFlags.passwordStdin, "password-stdin", false, "Read the password from stdin")
	rootCmd.AddCommand(loginCmd)
}
