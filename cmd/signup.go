package cmd

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"lovmig/cli/internal/session"
)

var signupFlags credentialFlags

// signupCmd creates an account.
var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `The signup command creates an account in the configured auth project. When the
project requires email confirmation you are signed in after following the link
in the confirmation email; otherwise you are signed in right away.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		return session.Run(ctx, a.holder.Current(), func(s *session.Synchronizer) error {
			email, password, err := signupFlags.read()
			if err != nil {
				return err
			}

			stop := startSpinner("Creating account")
			res := s.Signup(ctx, email, password)
			stop()
			if !res.Success {
				return failed(res, "signing up", a.host())
			}

			if s.IsAuthenticated() {
				pterm.Success.Printfln("Account created. Signed in as %s", identity(s.User()))
				return nil
			}
			pterm.Success.Println("Account created.")
			pterm.Info.Printfln("Check %s for a confirmation link, then run 'lovmig login'.", email)
			return nil
		}, a.sessionOptions()...)
	},
}

func init() {
	signupCmd.Flags().StringVar(&signupFlags.email, "email", "", "Account email (prompted when omitted)")
	signupCmd.Flags().BoolVar(&signupFlags.passwordStdin, "password-stdin", false, "Read the password from stdin")
	rootCmd.AddCommand(signupCmd)
}
