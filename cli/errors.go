package cli

import (
	"github.com/spacemonkeygo/errors"
)

type ExitCode byte

const (
	EXIT_BADARGS      = ExitCode(1)
	EXIT_UNKNOWNPANIC = ExitCode(2) // same code as golang uses when the process dies naturally on an unhandled panic.
	EXIT_CONFIG       = ExitCode(3) // the config document is unparsable, invalid, or names unknown things.
	EXIT_BUILDSTEP    = ExitCode(4) // a provisioning step ran and failed.
	EXIT_SETUP        = ExitCode(5) // mounts, namespaces, or cache state could not be stood up.
	EXIT_CYCLE        = ExitCode(6) // the prerequisite graph loops back on itself.
	EXIT_EXEC         = ExitCode(7) // the command could not be exec'd inside the container.
)

var ExitCodeKey = errors.GenSym()

/*
	CLI errors are the last line: they should be formatted to be user-facing.
	The main method will convert a CLIError into a short and well-formatted
	message, and will *not* include stack traces unless the user is running
	with debug mode enabled.

	CLI errors are an appropriate wrapping for anything where we can map a
	problem onto something the user can understand and fix.  Errors that are
	a hutch bug or unknown territory should *not* be mapped into a CLIError.
*/
var Error *errors.ErrorClass = errors.NewClass("CLIError")

/*
	Exit is the quiet cousin of `Error`: everything worth saying has been
	said (or the task spoke for itself), and all that's left is for main
	to exit with the attached code.  The chief user is exit status
	passthrough from the task the user asked us to run.
*/
var Exit *errors.ErrorClass = errors.NewClass("CLIExit")

/*
	Use this to set a specific error code the process should exit with
	when producing a `cli.Error` or `cli.Exit`.

	Example: `cli.Error.New("something terrible!", SetExitCode(EXIT_BADARGS))`
*/
func SetExitCode(code ExitCode) errors.ErrorOption {
	return errors.SetData(ExitCodeKey, code)
}
