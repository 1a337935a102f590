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

// logoutCmd signs out and removes the stored session.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored session",
	Long: `The logout command revokes the current session with the auth service
(best effort, so it also works offline) and removes it from the OS keychain.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		return session.Run(ctx, a.holder.Current(), func(s *session.Synchronizer) error {
			// An expired session that could not be refreshed still sits in
			// the keychain, so sign out even when nobody appears signed in.
			signedIn := s.IsAuthenticated()
			who := identity(s.User())
			s.Logout(ctx)
			if !signedIn {
				pterm.Info.Println("You're not logged in. Any stored session has been removed.")
				return nil
			}
			pterm.Success.Printfln("Signed out %s", who)
			return nil
		}, a.sessionOptions()...)
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
