//go:build !windows

package main

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// terminalWidth returns the column count of stdout and whether stdout is a
// terminal. COLUMNS is the fallback width when the ioctl fails.
func terminalWidth() (cols int, tty bool) {
	fd := int(os.Stdout.Fd())
	if ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil && ws != nil {
		if ws.Col > 0 {
			return int(ws.Col), true
		}
		tty = true
	}
	if s, ok := os.LookupEnv("COLUMNS"); ok {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n, tty
		}
	}
	return 0, tty
}
