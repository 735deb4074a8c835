package executor

import (
	"github.com/inconshreveable/log15"

	"go.polydawn.net/hutch/def"
)

/*
	Assignment is everything an executor needs to run one command once:
	the command, its (already validated) container, and the path of the
	container's fully built root.  The root belongs to the cache; an
	executor must arrange copy-on-write or copies, never write through
	it.
*/
type Assignment struct {
	Command   *def.Command
	Container *def.Container
	RootPath  string
}

/*
	Executor runs an assignment to completion and returns the task's
	exit status (a task killed by a signal reports 128+sig, shell
	style).

	Every run gets a fresh isolation context; nothing is shared or
	reused between runs.  MAY PANIC: `SetupError` (and its `MappingError`
	subclass) when the environment cannot be stood up, `TaskExecError` /
	`NoSuchCommandError` for launch failures.
*/
type Executor interface {
	Run(assignment Assignment, journal log15.Logger) int
}
