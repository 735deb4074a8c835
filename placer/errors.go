package placer

import (
	"github.com/spacemonkeygo/errors"
)

// grouping, do not instantiate
var Error *errors.ErrorClass = errors.NewClass("AssemblyError")

/*
	Error raised when a bind volume names a host path that does not
	exist.  Bind sources are never invented: an absent path is operator
	error, or a host daemon that hasn't started yet.
*/
var MissingSourceError *errors.ErrorClass = Error.NewClass("AssemblyMissingSourceError")
