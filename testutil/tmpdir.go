package testutil

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/smartystreets/goconvey/convey"
)

/*
	Decorates a goconvey test with a tmpdir: the test body runs chdir'd into
	a fresh directory which is removed afterward, and `HUTCH_BASE` points
	into it so nothing the code under test does can escape into the real
	`/var/lib/hutch`.

	See also https://github.com/smartystreets/goconvey/wiki/Decorating-tests-to-provide-common-logic
*/
func WithTmpdir(fn func()) func() {
	return func() {
		retreat, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		priorBase, hadBase := os.LookupEnv("HUTCH_BASE")
		convey.Reset(func() {
			os.Chdir(retreat)
			if hadBase {
				os.Setenv("HUTCH_BASE", priorBase)
			} else {
				os.Unsetenv("HUTCH_BASE")
			}
		})

		tmpdir, err := ioutil.TempDir("", "hutch-test-")
		if err != nil {
			panic(err)
		}
		tmpdir, err = filepath.Abs(tmpdir)
		if err != nil {
			panic(err)
		}
		convey.Reset(func() {
			os.RemoveAll(tmpdir)
		})

		os.Setenv("HUTCH_BASE", filepath.Join(tmpdir, "base"))
		if err := os.Chdir(tmpdir); err != nil {
			panic(err)
		}

		fn()
	}
}
