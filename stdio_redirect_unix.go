//go:build unix

package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// redirectStdIO points stderr, and stdout unless the board is drawing on
// the terminal, at path. Dup2 makes runtime panics land there too.
func redirectStdIO(path string, keepStdout bool) error {
	f, err := openStdIOLog(path)
	if err != nil || f == nil {
		return err
	}
	defer f.Close()

	if err := unix.Dup2(int(f.Fd()), int(os.Stderr.Fd())); err != nil {
		return err
	}
	if keepStdout {
		return nil
	}
	return unix.Dup2(int(f.Fd()), int(os.Stdout.Fd()))
}

func openStdIOLog(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(f, "--- departureboard pid %d started %s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	return f, nil
}
