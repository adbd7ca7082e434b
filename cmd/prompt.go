package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

var errAborted = errors.New("aborted")

// stdinIsTerminal selects the interactive prompt in confirm.
var stdinIsTerminal = func() bool { return isTerminal(os.Stdin) }

// confirm asks a yes/no question. On a terminal it uses an interactive
// prompt; otherwise one answer line is read from in, so scripts can pipe
// "y" instead of passing --yes.
func confirm(in io.Reader, out io.Writer, label string) (bool, error) {
	if !stdinIsTerminal() {
		return promptUser(in, out, label+" (y/n): ")
	}

	prompt := promptui.Prompt{
		Label:     label + " [y/N]",
		IsConfirm: true,
	}
	result, err := prompt.Run()
	if err != nil {
		switch err {
		case promptui.ErrInterrupt:
			return false, errAborted
		case promptui.ErrAbort:
			return false, nil
		}
		return false, err
	}
	result = strings.ToLower(result)
	return result == "y" || result == "yes", nil
}

// promptUser displays a message and waits for the user to enter 'y' or 'n'.
// Returns true if the user enters 'y' or 'yes' (case-insensitive), false otherwise.
func promptUser(in io.Reader, out io.Writer, message string) (bool, error) {
	fmt.Fprint(out, message)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || response == "") {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
