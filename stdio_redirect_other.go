//go:build !unix

package main

import (
	"fmt"
	"os"
	"time"
)

// Panics from the runtime still go to the original stderr here.
func redirectStdIO(path string, keepStdout bool) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	fmt.Fprintf(f, "--- departureboard pid %d started %s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	os.Stderr = f
	if !keepStdout {
		os.Stdout = f
	}
	return nil
}
