package cli

import (
	"io/ioutil"

	"go.polydawn.net/hutch/def"
)

/*
	Reads and parses the config document, checking every container and
	command in it for internal consistency before anything acts on it.

	MAY PANIC with `cli.Error` (unreadable file) or `def.ConfigError`
	(unparsable or invalid document).
*/
func LoadConfigFromFile(path string) *def.Config {
	ser, err := ioutil.ReadFile(path)
	if err != nil {
		panic(Error.NewWith(
			"could not read config file: "+err.Error(),
			SetExitCode(EXIT_CONFIG)))
	}
	cfg := def.ParseConfig(ser)
	def.ValidateAll(cfg)
	return cfg
}
