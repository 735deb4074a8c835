package def

import (
	"fmt"
)

/*
	Error raised when decoding configuration (generally, something
	user-input).

	Basic shape errors like "got number, expected string" are included in
	this, but not more advanced semantics (e.g. "command references unknown
	container" is a semantic error, not a parsing one, so is raised by
	`Validate` instead).
*/
type ErrConfigParsing struct {
	Key    string
	Msg    string
	MustBe string
}

func (e ErrConfigParsing) Error() string {
	return e.Msg
}

func newConfigValTypeError(key, mustBe string) error {
	return ErrConfigParsing{
		Key:    key,
		Msg:    fmt.Sprintf("config key %q must be a %s", key, mustBe),
		MustBe: mustBe,
	}
}
