package placer

import (
	"io/ioutil"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/testutil"
)

func TestMountPlan(t *testing.T) {
	Convey("Given a container with volumes and a command with overrides", t, func() {
		container := &def.Container{
			Name: "browser",
			Volumes: map[string]def.Volume{
				"/home/myself":  def.Persistent{Name: "home"},
				"/tmp":          def.Tmpfs{Size: 100 << 20, Mode: 01777},
				"/tmp/.X11-unix": def.Bind{Source: "/tmp/.X11-unix"},
			},
		}
		command := &def.Command{
			Name: "firefox",
			Volumes: map[string]def.Volume{
				"/home/myself/.Xauthority": def.Bind{Source: "/home/host/.Xauthority", ReadOnly: true},
			},
		}

		Convey("the plan should order parents before children", func() {
			ops := Plan(container, command)
			So(ops, ShouldHaveLength, 4)
			So(ops[0].TargetPath, ShouldEqual, "/home/myself")
			So(ops[1].TargetPath, ShouldEqual, "/home/myself/.Xauthority")
			So(ops[2].TargetPath, ShouldEqual, "/tmp")
			So(ops[3].TargetPath, ShouldEqual, "/tmp/.X11-unix")
		})

		Convey("a command override should replace the container's entry", func() {
			command.Volumes["/tmp"] = def.Tmpfs{Size: 1 << 20, Mode: 0700}
			ops := Plan(container, command)
			So(ops, ShouldHaveLength, 4)
			for _, op := range ops {
				if op.TargetPath == "/tmp" {
					So(op.Volume, ShouldResemble, def.Tmpfs{Size: 1 << 20, Mode: 0700})
				}
			}
		})

		Convey("a command with no overrides inherits the container's plan", func() {
			ops := Plan(container, &def.Command{Name: "bare"})
			So(ops, ShouldHaveLength, 3)
		})
	})
}

func TestAssemblerRefusals(t *testing.T) {
	Convey("Given an assembler", t, testutil.WithTmpdir(func() {
		a := NewAssembler("volumes")
		So(os.Mkdir("root", 0755), ShouldBeNil)

		Convey("a bind volume with a missing source should refuse loudly", func() {
			ops := []MountOp{{
				TargetPath: "/data",
				Volume:     def.Bind{Source: "/nonexistent/hutch/bind/source"},
			}}
			So(func() {
				a.Assemble("root", ops, testutil.DiscardLogger())
			}, testutil.ShouldPanicWith, MissingSourceError)
		})
	}))
}

func TestCopyingPlacer(t *testing.T) {
	Convey("Given source material and a landing dir", t, testutil.WithTmpdir(func() {
		So(os.MkdirAll("src/sub", 0755), ShouldBeNil)
		So(ioutil.WriteFile("src/file", []byte("body"), 0644), ShouldBeNil)
		So(os.Mkdir("dest", 0755), ShouldBeNil)
		So(ioutil.WriteFile("dest/squatter", []byte("x"), 0644), ShouldBeNil)

		emplacement := CopyingPlacer("src", "dest", true)

		Convey("the copy should shadow whatever was there before", func() {
			So("dest/file", testutil.ShouldBeFile)
			_, err := os.Stat("dest/squatter")
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("writes to the copy should not touch the source", func() {
			So(ioutil.WriteFile("dest/scribble", []byte("y"), 0644), ShouldBeNil)
			_, err := os.Stat("src/scribble")
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("teardown should clear the landing dir", func() {
			emplacement.Teardown()
			_, err := os.Stat("dest")
			So(os.IsNotExist(err), ShouldBeTrue)
		})
	}))
}
