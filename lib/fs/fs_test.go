package fs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.polydawn.net/hutch/testutil"
)

func TestCopyTree(t *testing.T) {
	Convey("Given a source tree with some texture", t, testutil.WithTmpdir(func() {
		So(os.MkdirAll("src/sub/deeper", 0755), ShouldBeNil)
		So(ioutil.WriteFile("src/file", []byte("hello"), 0644), ShouldBeNil)
		So(ioutil.WriteFile("src/sub/exec", []byte("#!/bin/sh\n"), 0755), ShouldBeNil)
		So(os.Symlink("../file", "src/sub/link"), ShouldBeNil)
		So(os.Symlink("/nonexistent", "src/dangle"), ShouldBeNil)
		So(os.Mkdir("dest", 0755), ShouldBeNil)

		CopyTree("src", "dest")

		Convey("regular files arrive with content and mode", func() {
			body, err := ioutil.ReadFile("dest/file")
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "hello")
			fi, err := os.Stat("dest/sub/exec")
			So(err, ShouldBeNil)
			So(fi.Mode().Perm(), ShouldEqual, os.FileMode(0755))
		})

		Convey("symlinks arrive as links, not their referents", func() {
			target, err := os.Readlink("dest/sub/link")
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "../file")
			target, err = os.Readlink("dest/dangle")
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "/nonexistent")
		})

		Convey("empty dirs arrive too", func() {
			fi, err := os.Stat("dest/sub/deeper")
			So(err, ShouldBeNil)
			So(fi.IsDir(), ShouldBeTrue)
		})
	}))

	Convey("Read-only dirs should not block their own contents", t, testutil.WithTmpdir(func() {
		So(os.MkdirAll("src/frozen", 0755), ShouldBeNil)
		So(ioutil.WriteFile("src/frozen/file", []byte("x"), 0644), ShouldBeNil)
		So(os.Chmod("src/frozen", 0555), ShouldBeNil)
		defer os.Chmod("src/frozen", 0755) // so tmpdir cleanup can proceed
		So(os.Mkdir("dest", 0755), ShouldBeNil)

		CopyTree("src", "dest")
		defer os.Chmod("dest/frozen", 0755)

		So(filepath.Join("dest", "frozen", "file"), testutil.ShouldBeFile)
		fi, err := os.Stat("dest/frozen")
		So(err, ShouldBeNil)
		So(fi.Mode().Perm(), ShouldEqual, os.FileMode(0555))
	}))
}
