package builder

import (
	"github.com/spacemonkeygo/errors"
)

// grouping, do not instantiate
var Error *errors.ErrorClass = errors.NewClass("BuildError")

/*
	Error raised when a build cannot even begin: a base image tarball is
	missing from the images dir, the rootfs under construction is
	unusable, or similar environmental problems.  Nothing was attempted
	inside the container, so nothing is recorded against the fingerprint.
*/
var SetupError *errors.ErrorClass = Error.NewClass("BuildSetupError")

/*
	Error raised when a provisioning step ran and reported failure.

	Carries the index of the failing step and (when the step was a
	subprocess) its exit status; see `GetStepIndex` and `GetExitStatus`.
	The failure is also recorded in the cache against the step's
	fingerprint, so repeated invocations don't silently retry forever.
*/
var StepError *errors.ErrorClass = Error.NewClass("BuildStepError")

var stepIndexKey = errors.GenSym()
var exitStatusKey = errors.GenSym()

func SetStepIndex(index int) errors.ErrorOption {
	return errors.SetData(stepIndexKey, index)
}

// Returns the failing step's index, or -1 if the error doesn't carry one.
func GetStepIndex(err error) int {
	index, ok := errors.GetData(err, stepIndexKey).(int)
	if !ok {
		return -1
	}
	return index
}

func SetExitStatus(code int) errors.ErrorOption {
	return errors.SetData(exitStatusKey, code)
}

// Returns the failing subprocess's exit status, or -1 if the error
// doesn't carry one.
func GetExitStatus(err error) int {
	code, ok := errors.GetData(err, exitStatusKey).(int)
	if !ok {
		return -1
	}
	return code
}
