package def

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.polydawn.net/hutch/testutil"
)

func minimalConfig() *Config {
	return &Config{
		Containers: map[string]*Container{
			"base": {
				Name:  "base",
				Steps: []Step{BaseDistro{Release: "xenial"}},
			},
		},
		Commands: map[string]*Command{
			"hello": {
				Name:      "hello",
				Container: "base",
				Argv:      []string{"echo", "hello"},
			},
		},
	}
}

func TestValidation(t *testing.T) {
	Convey("A well-formed config should validate", t, func() {
		So(func() { ValidateBasic(minimalConfig()) }, ShouldNotPanic)
	})

	Convey("Validation should reject", t, func() {
		Convey("... commands referencing unknown containers", func() {
			cfg := minimalConfig()
			cfg.Commands["hello"].Container = "ghost"
			So(func() { ValidateBasic(cfg) }, testutil.ShouldPanicWith, ValidationError)
		})
		Convey("... commands with empty argv", func() {
			cfg := minimalConfig()
			cfg.Commands["hello"].Argv = nil
			So(func() { ValidateBasic(cfg) }, testutil.ShouldPanicWith, ValidationError)
		})
		Convey("... unknown prerequisites", func() {
			cfg := minimalConfig()
			cfg.Commands["hello"].Prerequisites = []string{"ghost"}
			So(func() { ValidateBasic(cfg) }, testutil.ShouldPanicWith, ValidationError)
		})
		Convey("... containers with no steps", func() {
			cfg := minimalConfig()
			cfg.Containers["base"].Steps = nil
			So(func() { ValidateBasic(cfg) }, testutil.ShouldPanicWith, ValidationError)
		})
		Convey("... relative volume mount points", func() {
			cfg := minimalConfig()
			cfg.Containers["base"].Volumes = map[string]Volume{"tmp": Tmpfs{}}
			So(func() { ValidateBasic(cfg) }, testutil.ShouldPanicWith, ValidationError)
		})
		Convey("... tmpfs subdirs that escape the mount", func() {
			cfg := minimalConfig()
			cfg.Containers["base"].Volumes = map[string]Volume{
				"/tmp": Tmpfs{Subdirs: []Subdir{{Path: "../up", Mode: 0755}}},
			}
			So(func() { ValidateBasic(cfg) }, testutil.ShouldPanicWith, ValidationError)
		})
	})

	Convey("Convenience validation should default PATH but respect overrides", t, func() {
		cfg := minimalConfig()
		cfg.Containers["base"].Env = map[string]string{"PATH": "/opt/bin"}
		ValidateConvenience(cfg)
		So(cfg.Containers["base"].Env["PATH"], ShouldEqual, "/opt/bin")

		cfg2 := minimalConfig()
		ValidateConvenience(cfg2)
		So(cfg2.Containers["base"].Env["PATH"], ShouldNotBeEmpty)
	})
}
