// Package termio wraps terminal detection and no-echo input for the
// passphrase prompt.
package termio

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

func terminalFD(file *os.File) (int, bool) {
	if file == nil {
		return 0, false
	}
	maxInt := int(^uint(0) >> 1)
	fd := file.Fd()
	if fd > uintptr(maxInt) {
		return 0, false
	}
	return int(fd), true // #nosec G115 -- os.File descriptors fit into int on supported platforms
}

// IsTerminal reports whether file is attached to an interactive terminal.
func IsTerminal(file *os.File) bool {
	fd, ok := terminalFD(file)
	return ok && term.IsTerminal(fd)
}

// ReadPassword prints label and reads a line from stdin without echo.
func ReadPassword(label string) ([]byte, error) {
	fd, ok := terminalFD(os.Stdin)
	if !ok || !term.IsTerminal(fd) {
		return nil, errors.New("no interactive terminal available")
	}
	fmt.Print(label)
	defer fmt.Println()
	return term.ReadPassword(fd)
}
