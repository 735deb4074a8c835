package executor

import (
	"github.com/spacemonkeygo/errors"
)

// grouping, do not instantiate
var Error *errors.ErrorClass = errors.NewClass("ExecutorError")

/*
	Error raised when the execution environment cannot be stood up:
	workspace IO, mount assembly, namespace creation.  The task itself
	was never started.
*/
var SetupError *errors.ErrorClass = Error.NewClass("ExecutorSetupError")

/*
	Error raised when no usable uid/gid mapping can be produced for the
	requested identities: the subordinate id tables have no entry for the
	invoking user, or the range they grant is too small to cover the
	command's user-id.  Nothing is ever silently clamped.
*/
var MappingError *errors.ErrorClass = SetupError.NewClass("IdentityMappingError")

/*
	Error raised when there are serious issues with task launch after the
	environment itself stood up fine.  Occurrence may be due to
	OS-imposed resource limits or other unexpected problems; it should
	not be seen in normal, healthy operation.
*/
var TaskExecError *errors.ErrorClass = Error.NewClass("ExecutorTaskExecError")

/*
	Error raised when the exec target is not found (or not executable)
	inside the container.  Kept distinct from setup failures because the
	fix is entirely different: the environment is fine, the command or
	the container contents are what's wrong.
*/
var NoSuchCommandError *errors.ErrorClass = TaskExecError.NewClass("NoSuchCommandError")
