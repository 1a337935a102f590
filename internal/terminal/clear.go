// Package terminal handles interactive prompts: hidden password entry and
// wiping prompt lines once they have been answered.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Width returns the terminal width, or 80 when it cannot be determined.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// ReadLine prints prompt and reads one line from in.
func ReadLine(in *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadPassword prints prompt and reads a password without echo. When stdin
// is not a terminal the next line of in is used instead.
func ReadPassword(in *bufio.Reader, prompt string) (string, error) {
	if !IsInteractive() {
		line, err := in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LinesFor returns how many terminal rows textLength characters occupy.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = 80
	}
	n := int(math.Ceil(float64(textLength) / float64(width)))
	if n < 1 {
		n = 1
	}
	return n
}

// ClearPreviousLines wipes an answered prompt of textLength characters
// (prompt plus input). The cursor sits on the row below it after Enter, so
// one extra row is cleared.
func ClearPreviousLines(textLength int) {
	linesToClear := LinesFor(textLength, Width()) + 1
	for i := 0; i < linesToClear; i++ {
		fmt.Print("\r\x1b[2K")
		if i < linesToClear-1 {
			fmt.Print("\x1b[1A")
		}
	}
}
