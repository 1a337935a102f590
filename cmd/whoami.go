package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/httperrors"
	"lovmig/cli/internal/session"
)

var whoamiJSON bool

// whoamiCmd shows the signed-in user, confirming the session with the
// service when it is reachable.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show the signed-in user",
	Long: `The whoami command shows who is signed in. The stored session is checked with
the auth service; when the service cannot be reached the cached identity is
shown instead.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		return session.Run(ctx, a.holder.Current(), func(s *session.Synchronizer) error {
			if !s.IsAuthenticated() {
				printNotLoggedIn()
				return nil
			}

			user := s.User()
			verified := false
			u, err := a.holder.Current().GetUser(ctx)
			switch {
			case err == nil && u != nil:
				user, verified = u, true
			case httperrors.Classify(err) == httperrors.KindRejected:
				pterm.Warning.Println("Your session is no longer valid.")
				pterm.Println("   Run 'lovmig login' to sign in again.")
				return nil
			case err != nil:
				log.Debugf("whoami: verify user: %v", err)
			}

			if whoamiJSON {
				b, err := json.MarshalIndent(user, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			}
			printUser(user, s.Session(), verified)
			return nil
		}, a.sessionOptions()...)
	},
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Print the user record as JSON")
	rootCmd.AddCommand(whoamiCmd)
}

func printUser(u *auth.User, s *auth.Session, verified bool) {
	label := pterm.NewStyle(pterm.FgLightCyan)
	lines := []string{label.Sprint("User:     ") + identity(u)}
	if u.ID != "" {
		lines = append(lines, label.Sprint("ID:       ")+u.ID)
	}
	if u.Role != "" {
		lines = append(lines, label.Sprint("Role:     ")+u.Role)
	}
	if s != nil && s.ExpiresAt > 0 {
		lines = append(lines, label.Sprint("Session:  ")+"expires "+time.Unix(s.ExpiresAt, 0).Format(time.RFC1123))
	}
	if !verified {
		lines = append(lines, pterm.NewStyle(pterm.FgYellow).Sprint("Could not reach the auth service; showing cached details."))
	}

	pterm.DefaultBox.
		WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Signed in")).
		Println(strings.Join(lines, "\n"))
}

