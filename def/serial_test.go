package def

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.polydawn.net/hutch/testutil"
)

const browserConfig = `{
	"containers": {
		"browser": {
			"setup": [
				{"kind": "base-distro", "release": "xenial"},
				{"kind": "enable-repo", "repo": "universe"},
				{"kind": "install", "packages": ["firefox", "icedtea-plugin"]},
				{"kind": "shell", "script": "useradd -m myself"},
				{"kind": "ensure-dir", "path": "/home/myself", "mode": "0755"}
			],
			"volumes": {
				"/home/myself": {"kind": "persistent", "name": "home"},
				"/tmp": {"kind": "tmpfs", "size": "100Mi", "mode": "01777", "subdirs": [{"path": ".X11-unix", "mode": "01777"}]},
				"/tmp/.X11-unix": {"kind": "bind-rw", "source": "/tmp/.X11-unix"}
			},
			"environ": {"DISPLAY": ":0"}
		}
	},
	"commands": {
		"firefox": {
			"container": "browser",
			"run": ["firefox", "--no-remote"],
			"user-id": 1000,
			"external-user-id": 0,
			"prerequisites": ["_touch-file"],
			"volumes": {
				"/home/myself/.Xauthority": {"kind": "bind-ro", "source": "/home/host/.Xauthority"}
			}
		},
		"_touch-file": {
			"container": "browser",
			"run": ["touch", "/home/myself/.Xauthority"],
			"user-id": 1000
		}
	}
}`

func TestConfigParsing(t *testing.T) {
	Convey("Given the browser example document", t, func() {
		cfg := ParseConfig([]byte(browserConfig))

		Convey("Containers should decode with all step variants in order", func() {
			cnt, ok := cfg.Containers["browser"]
			So(ok, ShouldBeTrue)
			So(cnt.Name, ShouldEqual, "browser")
			So(cnt.Steps, ShouldHaveLength, 5)
			So(cnt.Steps[0], ShouldResemble, BaseDistro{Release: "xenial"})
			So(cnt.Steps[1], ShouldResemble, EnableRepo{Repo: "universe"})
			So(cnt.Steps[2], ShouldResemble, Install{Packages: []string{"firefox", "icedtea-plugin"}})
			So(cnt.Steps[3], ShouldResemble, Shell{Script: "useradd -m myself"})
			So(cnt.Steps[4], ShouldResemble, EnsureDir{Path: "/home/myself", Mode: 0755})
		})

		Convey("Volume variants should decode", func() {
			vols := cfg.Containers["browser"].Volumes
			So(vols["/home/myself"], ShouldResemble, Persistent{Name: "home"})
			So(vols["/tmp"], ShouldResemble, Tmpfs{
				Size:    100 << 20,
				Mode:    01777,
				Subdirs: []Subdir{{Path: ".X11-unix", Mode: 01777}},
			})
			So(vols["/tmp/.X11-unix"], ShouldResemble, Bind{Source: "/tmp/.X11-unix"})
		})

		Convey("Commands should decode with identities, prerequisites, and overrides", func() {
			cmd := cfg.Commands["firefox"]
			So(cmd.Container, ShouldEqual, "browser")
			So(cmd.Argv, ShouldResemble, []string{"firefox", "--no-remote"})
			So(cmd.UserID, ShouldEqual, 1000)
			So(cmd.ExternalUserID, ShouldEqual, 0)
			So(cmd.Prerequisites, ShouldResemble, []string{"_touch-file"})
			So(cmd.Volumes["/home/myself/.Xauthority"], ShouldResemble,
				Bind{Source: "/home/host/.Xauthority", ReadOnly: true})
		})

		Convey("Command overrides should replace, not merge, the container entry", func() {
			cnt := cfg.Containers["browser"]
			cmd := cfg.Commands["firefox"]
			merged := ResolvedVolumes(cnt, cmd)
			So(merged, ShouldHaveLength, 4)
			So(merged["/home/myself"], ShouldResemble, Persistent{Name: "home"})
			So(merged["/home/myself/.Xauthority"], ShouldResemble,
				Bind{Source: "/home/host/.Xauthority", ReadOnly: true})
		})
	})

	Convey("Malformed documents should raise ConfigError", t, func() {
		Convey("... for json that won't parse", func() {
			So(func() { ParseConfig([]byte("{nope")) }, testutil.ShouldPanicWith, ConfigError)
		})
		Convey("... for unknown step kinds", func() {
			So(func() {
				ParseConfig([]byte(`{"containers": {"x": {"setup": [{"kind": "transmogrify"}]}}}`))
			}, testutil.ShouldPanicWith, ConfigError)
		})
		Convey("... for unknown volume kinds", func() {
			So(func() {
				ParseConfig([]byte(`{"containers": {"x": {"setup": [{"kind": "shell", "script": "true"}], "volumes": {"/v": {"kind": "floppy"}}}}}`))
			}, testutil.ShouldPanicWith, ConfigError)
		})
		Convey("... for bad modes", func() {
			So(func() {
				ParseConfig([]byte(`{"containers": {"x": {"setup": [{"kind": "ensure-dir", "path": "/a", "mode": "lax"}]}}}`))
			}, testutil.ShouldPanicWith, ConfigError)
		})
	})
}
