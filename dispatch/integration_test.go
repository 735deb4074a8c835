package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.polydawn.net/hutch/builder"
	"go.polydawn.net/hutch/cache"
	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/executor/userns"
	"go.polydawn.net/hutch/testutil"
)

// the executor re-execs /proc/self/exe, which under `go test` is the test
// binary; pick up the init handoff before the runner starts.
func TestMain(m *testing.M) {
	if len(os.Args) == 3 && os.Args[1] == "init" {
		userns.RunInit(os.Args[2])
	}
	os.Exit(m.Run())
}

// binds enough of the host to have `sh` and `touch` inside an
// otherwise-empty root.
func hostToolVolumes() map[string]def.Volume {
	vols := map[string]def.Volume{}
	for _, path := range []string{"/bin", "/usr", "/lib", "/lib64", "/etc/alternatives"} {
		if _, err := os.Stat(path); err == nil {
			vols[path] = def.Bind{Source: path, ReadOnly: true}
		}
	}
	return vols
}

func TestEndToEnd(t *testing.T) {
	testutil.Convey_IfHaveRoot("Given a real builder and executor stack", t,
		testutil.WithTmpdir(func() {
			c := cache.New("cache")
			b := builder.New(c, "images", "")
			x := userns.New("workspace", "volumes")
			d := &Dispatcher{Provisioner: b, Executor: x}

			vols := hostToolVolumes()
			vols["/home/myself"] = def.Persistent{Name: "home"}
			container := &def.Container{
				Name: "browser",
				Steps: []def.Step{
					def.EnsureDir{Path: "/home/myself", Mode: 0755},
				},
				Volumes: vols,
				Env:     map[string]string{"PATH": "/usr/bin:/bin"},
			}
			cfg := &def.Config{
				Containers: map[string]*def.Container{"browser": container},
				Commands: map[string]*def.Command{
					"check": {
						Name: "check", Container: "browser",
						Argv:           []string{"sh", "-c", "test -f /home/myself/.Xauthority"},
						Prerequisites:  []string{"_touch-file"},
						ExternalUserID: os.Getuid(),
					},
					"_touch-file": {
						Name: "_touch-file", Container: "browser",
						Argv:           []string{"touch", "/home/myself/.Xauthority"},
						ExternalUserID: os.Getuid(),
					},
				},
			}

			Convey("the prerequisite's persistent-volume writes are visible to the target", func() {
				status := d.Run(cfg, "check", testutil.DiscardLogger())
				So(status, ShouldEqual, 0)

				Convey("and survive on the host side of the volume", func() {
					_, err := os.Stat(filepath.Join("volumes", "home", ".Xauthority"))
					So(err, ShouldBeNil)
				})
			})

			Convey("a second run reuses the built chain", func() {
				d.Run(cfg, "_touch-file", testutil.DiscardLogger())
				res := c.Resolve(container, "")
				So(res.FullyCached(), ShouldBeTrue)
				status := d.Run(cfg, "_touch-file", testutil.DiscardLogger())
				So(status, ShouldEqual, 0)
			})
		}),
	)
}
