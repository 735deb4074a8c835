package cli

import (
	"bytes"
	"io/ioutil"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/testutil"
)

func TestLoadConfigFromFile(t *testing.T) {
	Convey("Given a directory of config documents", t,
		testutil.WithTmpdir(func() {
			Convey("a valid document parses and validates", func() {
				ioutil.WriteFile("hutch.json", []byte(`{
					"containers": {
						"browser": {
							"setup": [
								{"kind": "base-distro", "release": "xenial"}
							]
						}
					},
					"commands": {
						"firefox": {
							"container": "browser",
							"run": ["firefox"]
						}
					}
				}`), 0644)
				cfg := LoadConfigFromFile("hutch.json")
				So(cfg.Containers, ShouldContainKey, "browser")
				So(cfg.Commands["firefox"].Argv, ShouldResemble, []string{"firefox"})
			})

			Convey("a missing file raises a CLI error", func() {
				So(func() { LoadConfigFromFile("nonexistent.json") },
					testutil.ShouldPanicWith, Error)
			})

			Convey("an unparsable document raises ConfigError", func() {
				ioutil.WriteFile("hutch.json", []byte(`{"containers": [`), 0644)
				So(func() { LoadConfigFromFile("hutch.json") },
					testutil.ShouldPanicWith, def.ConfigError)
			})

			Convey("dangling references fail validation", func() {
				ioutil.WriteFile("hutch.json", []byte(`{
					"commands": {
						"firefox": {"container": "ghost", "run": ["firefox"]}
					}
				}`), 0644)
				So(func() { LoadConfigFromFile("hutch.json") },
					testutil.ShouldPanicWith, def.ConfigError)
			})
		}),
	)
}

func TestUnknownSubcommand(t *testing.T) {
	Convey("Unrecognized subcommands are a hard error", t, func() {
		var journal, output bytes.Buffer
		So(func() {
			Main([]string{"hutch", "frobnicate"}, &journal, &output)
		}, testutil.ShouldPanicWith, Exit)
		So(journal.String(), ShouldContainSubstring, "not a hutch subcommand")
	})
}
