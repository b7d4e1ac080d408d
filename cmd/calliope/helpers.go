package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// truncate shortens s for table display.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// formatSeconds renders a duration in seconds as m:ss.
func formatSeconds(secs int) string {
	if secs <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// readPassphrase prompts for a passphrase without echo. When stdin is not a
// terminal it reads a single line instead, so scripts can pipe the
// passphrase in.
func readPassphrase(cmd *cobra.Command, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Passphrase: ")
		first, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if confirm {
			fmt.Fprint(cmd.ErrOrStderr(), "Confirm passphrase: ")
			second, err := term.ReadPassword(fd)
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return "", fmt.Errorf("reading passphrase: %w", err)
			}
			if string(first) != string(second) {
				return "", fmt.Errorf("passphrases do not match")
			}
		}
		if len(first) == 0 {
			return "", fmt.Errorf("passphrase must not be empty")
		}
		return string(first), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	return line, nil
}
