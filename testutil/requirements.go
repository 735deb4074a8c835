package testutil

import (
	"os"

	"github.com/smartystreets/goconvey/convey"
)

// Mount and namespace tests need real privileges; skip them (visibly)
// for everyone else.
func Convey_IfHaveRoot(items ...interface{}) {
	if os.Getuid() == 0 {
		convey.Convey(items...)
	} else {
		convey.SkipConvey(items...)
	}
}
