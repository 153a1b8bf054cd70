// Package prompt holds the interactive questions the CLI asks before a
// sync. The sync core never blocks on user input; every decision is made
// here, before the core is called.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled by user")

// UserPrompt asks the user for pre-transfer decisions.
type UserPrompt interface {
	// Confirm asks a yes/no question; false means the user declined.
	Confirm(question string) (bool, error)

	// Password reads a secret without echoing it.
	Password(label string) (string, error)
}

// Terminal prompts on the controlling terminal.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (t *Terminal) Confirm(question string) (bool, error) {
	_, _ = fmt.Fprintf(t.out, "%s [y/N] ", question)
	answer, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("couldn't read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func (t *Terminal) Password(label string) (string, error) {
	_, _ = fmt.Fprintf(t.out, "%s: ", label)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("couldn't read password: %w", err)
	}
	return string(secret), nil
}

// Scripted answers every question from fixed values; used in tests and in
// --noinput mode.
type Scripted struct {
	ConfirmAnswer  bool
	PasswordAnswer string
}

func (s Scripted) Confirm(string) (bool, error)    { return s.ConfirmAnswer, nil }
func (s Scripted) Password(string) (string, error) { return s.PasswordAnswer, nil }
