package local

import (
	"errors"

	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/executor/process"
)

const unknownError = "Unknown error"

// processMessage picks the text shown for a failed step, in order: stdout
// captured by the process error, its stderr, the error text, "Unknown error".
func processMessage(err error) string {
	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Stdout != "" {
			return exitErr.Stdout
		}
		if exitErr.Stderr != "" {
			return exitErr.Stderr
		}
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return unknownError
}

// classify tags err with the kind of the step that produced it. A toolchain
// that could not be started is a spawn error whatever the step.
func classify(step executor.ErrorKind, err error) *executor.Error {
	var tagged *executor.Error
	if errors.As(err, &tagged) {
		return tagged
	}
	var spawnErr *process.SpawnError
	if errors.As(err, &spawnErr) {
		step = executor.KindSpawn
	}
	return executor.Failure(step, processMessage(err), err)
}

// failureText is the final string handed to the caller for a failed execution.
func failureText(err error) string {
	var tagged *executor.Error
	if errors.As(err, &tagged) && tagged.Message != "" {
		return tagged.Message
	}
	return processMessage(err)
}
