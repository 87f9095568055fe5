package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// promptLine reads one line from r after printing label to the error stream.
func promptLine(errw io.Writer, r io.Reader, label string) (string, error) {
	fmt.Fprint(errw, label)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "error reading input")
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a secret from the terminal with echo disabled.
func promptPassword(errw io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for a password prompt; pass --password")
	}
	fmt.Fprint(errw, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(errw)
	if err != nil {
		return "", errors.Wrap(err, "error reading password")
	}
	return string(raw), nil
}
