package userns

import (
	"io/ioutil"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/executor"
	"go.polydawn.net/hutch/testutil"
)

// the executor re-execs /proc/self/exe, which under `go test` is the test
// binary; pick up the init handoff before the runner starts.
func TestMain(m *testing.M) {
	if len(os.Args) == 3 && os.Args[1] == "init" {
		RunInit(os.Args[2])
	}
	os.Exit(m.Run())
}

func TestLookPath(t *testing.T) {
	Convey("Container PATH resolution", t, testutil.WithTmpdir(func() {
		So(os.MkdirAll("bin", 0755), ShouldBeNil)
		So(ioutil.WriteFile("bin/frob", []byte("#!/bin/sh\n"), 0755), ShouldBeNil)
		So(ioutil.WriteFile("bin/data", []byte("not a program"), 0644), ShouldBeNil)

		Convey("bare names search the path spec", func() {
			resolved, found := lookPath("frob", "nope:bin")
			So(found, ShouldBeTrue)
			So(resolved, ShouldEqual, "bin/frob")
		})

		Convey("non-executable files don't count", func() {
			_, found := lookPath("data", "bin")
			So(found, ShouldBeFalse)
		})

		Convey("names containing a slash skip the search", func() {
			resolved, found := lookPath("bin/frob", "irrelevant")
			So(found, ShouldBeTrue)
			So(resolved, ShouldEqual, "bin/frob")
			_, found = lookPath("elsewhere/frob", "bin")
			So(found, ShouldBeFalse)
		})
	}))
}

func TestTaskEnv(t *testing.T) {
	Convey("Task environment assembly", t, func() {
		priorTerm, hadTerm := os.LookupEnv("TERM")
		Reset(func() {
			if hadTerm {
				os.Setenv("TERM", priorTerm)
			} else {
				os.Unsetenv("TERM")
			}
		})
		os.Setenv("TERM", "xterm-host")

		Convey("TERM passes through from the host by default", func() {
			env := taskEnv(&def.Container{Env: map[string]string{"PATH": "/bin"}})
			So(env["TERM"], ShouldEqual, "xterm-host")
			So(env["PATH"], ShouldEqual, "/bin")
		})

		Convey("a container-pinned TERM wins", func() {
			env := taskEnv(&def.Container{Env: map[string]string{"TERM": "dumb"}})
			So(env["TERM"], ShouldEqual, "dumb")
		})
	})
}

// assembles a container whose rootfs is an empty overlay with the
// host's toolchain dirs bound in read-only; enough to run /bin/sh.
func hostToolsAssignment(argv []string) executor.Assignment {
	volumes := map[string]def.Volume{}
	for _, dir := range []string{"/bin", "/usr", "/lib", "/lib64", "/etc/alternatives"} {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			volumes[dir] = def.Bind{Source: dir, ReadOnly: true}
		}
	}
	container := &def.Container{
		Name:    "hosttools",
		Volumes: volumes,
		Env:     map[string]string{"PATH": "/usr/local/bin:/usr/bin:/bin"},
	}
	command := &def.Command{
		Name:           "probe",
		Container:      "hosttools",
		Argv:           argv,
		UserID:         0,
		ExternalUserID: os.Getuid(),
	}
	return executor.Assignment{Command: command, Container: container, RootPath: "lower"}
}

func TestNamespacedExecution(t *testing.T) {
	testutil.Convey_IfHaveRoot("Given a host-tools container", t, testutil.WithTmpdir(func() {
		So(os.Mkdir("lower", 0755), ShouldBeNil)
		x := New("workspace", "volumes")

		Convey("exit statuses pass through untouched", func() {
			status := x.Run(hostToolsAssignment([]string{"/bin/sh", "-c", "exit 12"}), testutil.DiscardLogger())
			So(status, ShouldEqual, 12)
		})

		Convey("signal deaths report as 128+sig", func() {
			status := x.Run(hostToolsAssignment([]string{"/bin/sh", "-c", "kill -9 $$"}), testutil.DiscardLogger())
			So(status, ShouldEqual, 137)
		})

		Convey("a missing command raises NoSuchCommandError", func() {
			So(func() {
				x.Run(hostToolsAssignment([]string{"this-command-does-not-exist"}), testutil.DiscardLogger())
			}, testutil.ShouldPanicWith, executor.NoSuchCommandError)
		})

		Convey("writes land in the overlay, never the cached root", func() {
			status := x.Run(hostToolsAssignment([]string{"/bin/sh", "-c", "echo scribble > /scratch"}), testutil.DiscardLogger())
			So(status, ShouldEqual, 0)
			_, err := os.Stat("lower/scratch")
			So(os.IsNotExist(err), ShouldBeTrue)
		})
	}))
}
