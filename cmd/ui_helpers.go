package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/httperrors"
	"lovmig/cli/internal/session"
	"lovmig/cli/internal/terminal"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// startInlineSpinner draws frames followed by text on a single line of w
// until the returned stop function is called. The line is cleared on stop.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
	}
}

// startSpinner shows a spinner with a hidden cursor when stdin is a
// terminal. The returned function restores the cursor.
func startSpinner(text string) func() {
	if !terminal.IsInteractive() {
		return func() {}
	}
	cursor.Hide()
	stop := startInlineSpinner(os.Stdout, text, spinnerFrames, 120*time.Millisecond)
	return func() {
		stop()
		cursor.Show()
	}
}

// identity names a user for display.
func identity(u *auth.User) string {
	if id := u.Identifier(); id != "" {
		return id
	}
	return "unknown user"
}

func loginGreeting(who string) string {
	greetings := []string{
		"Welcome back, %s!",
		"Great to see you, %s!",
		"You're all set, %s!",
		"Signed in as %s",
		"You're in, %s!",
	}
	return fmt.Sprintf(greetings[rand.Intn(len(greetings))], who)
}

func printNotLoggedIn() {
	pterm.Info.Println("You're not logged in yet!")
	pterm.Println("   Run 'lovmig login' to get started.")
}

// failed reports an unsuccessful result and returns the error the command
// exits with. Network and configuration problems get troubleshooting hints.
func failed(res session.Result, action, host string) error {
	switch httperrors.Classify(res.Err) {
	case httperrors.KindNone, httperrors.KindRejected:
		return errors.New(res.Error)
	default:
		httperrors.Present(res.Err, action, host)
		return fmt.Errorf("%s failed", action)
	}
}

// credentialFlags are shared by login and signup.
type credentialFlags struct {
	email         string
	passwordStdin bool
}

// read collects the email (flag or prompt) and the password (stdin or
// hidden prompt).
func (f credentialFlags) read() (string, string, error) {
	in := bufio.NewReader(os.Stdin)

	email := strings.TrimSpace(f.email)
	if email == "" {
		if f.passwordStdin {
			return "", "", errors.New("--email is required with --password-stdin")
		}
		var err error
		if email, err = terminal.ReadLine(in, "Email: "); err != nil {
			return "", "", fmt.Errorf("read email: %w", err)
		}
	}

	var password string
	var err error
	if f.passwordStdin {
		password, err = terminal.ReadLine(in, "")
	} else {
		const prompt = "Password: "
		password, err = terminal.ReadPassword(in, prompt)
		if err == nil && terminal.IsInteractive() {
			terminal.ClearPreviousLines(len(prompt))
		}
	}
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(email), password, nil
}
