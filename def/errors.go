package def

import (
	"github.com/spacemonkeygo/errors"
)

/*
	ConfigError is raised for any problem with the configuration document
	itself: unparsable serial forms, unknown step or volume kinds, dangling
	references between commands and containers, and so on.

	Config errors are always detected before any side effect has occurred;
	fixing the config and retrying is safe and requires no cleanup.
*/
var ConfigError *errors.ErrorClass = errors.NewClass("ConfigError")

/*
	ValidationError is the subset of config errors raised by semantic checks
	(as opposed to outright parse failures): an empty argv, a command
	referencing a container that doesn't exist, etc.
*/
var ValidationError *errors.ErrorClass = ConfigError.NewClass("ValidationError")
