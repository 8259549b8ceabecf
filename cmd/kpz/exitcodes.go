package main

import "os"

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitLocked indicates another kpz process held the lock
	ExitLocked = 3

	// ExitFilesystem indicates the installation directory or snapshot could not be written
	ExitFilesystem = 4

	// ExitInterrupted indicates the command was cancelled by a signal
	ExitInterrupted = 130
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
