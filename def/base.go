package def

import (
	"os"
)

/*
	Return the home-base path prefix that this process will cram ALL state under.

	Usually it's `"/var/lib/hutch"`, but it can be overriden by the `HUTCH_BASE`
	environment variable.  (The test system uses this to pick a single prefix
	to invoke a group of package tests to run together on the same state,
	while making certain nothing survives to interfere between runs.)

	The cache of built roots, the persistent volume store, and the per-job
	workspaces all live under here.
*/
func Base() string {
	base := os.Getenv("HUTCH_BASE")
	if base == "" {
		base = "/var/lib/hutch"
	}
	os.MkdirAll(base, 0755)
	return base
}
