package dispatch

import (
	"github.com/spacemonkeygo/errors"

	"go.polydawn.net/hutch/def"
)

// grouping, do not instantiate
var Error *errors.ErrorClass = errors.NewClass("DispatchError")

/*
	Error raised when the prerequisite graph contains a cycle.  Detected
	by walking the whole graph up front, before any container is built
	or any command run; a cyclic config has no side effects at all.

	A config error at heart: the document is wrong, not the world.
*/
var CycleError *errors.ErrorClass = def.ConfigError.NewClass("PrerequisiteCycleError")
