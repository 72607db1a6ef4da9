//go:build windows

package main

import (
	"os"
	"strconv"
)

// terminalWidth reads COLUMNS only; color stays off on Windows consoles.
func terminalWidth() (cols int, tty bool) {
	if s, ok := os.LookupEnv("COLUMNS"); ok {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n, false
		}
	}
	return 0, false
}
