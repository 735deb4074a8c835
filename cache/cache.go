package cache

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ugorji/go/codec"

	"go.polydawn.net/hutch/def"
)

type Status string

const (
	StatusPending  = Status("pending")
	StatusComplete = Status("complete")
	StatusFailed   = Status("failed")
)

/*
	Cache maps fingerprints to built roots on disk.

	Layout under the base path:

		committed/<fp>/rootfs/      the built filesystem
		committed/<fp>/status.json  status marker
		locks/<fp>.lock             advisory lock files
		stg/                        staging arenas (not yet committed)

	Entries are never mutated in place: builds happen in staging arenas and
	are promoted by an atomic rename.  All state is explicit in the struct
	(no package-level globals), so tests can run several independent caches
	in one process.

	The cache owns the roots it holds; consumers borrow them read-only and
	must never write through a committed path.
*/
type Cache struct {
	basePath string
}

func New(basePath string) *Cache {
	for _, dir := range []string{"committed", "stg", "locks"} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			panic(Error.New("unable to create cache dirs: %s", err))
		}
	}
	return &Cache{basePath}
}

// status marker serial form.
type marker struct {
	Fingerprint string `json:"fingerprint"`
	Status      Status `json:"status"`
	StepIndex   int    `json:"stepIndex"`
}

var markerHandle = &codec.JsonHandle{}

/*
	Resolution is the answer to "what do I have, and what must still be
	built": the full fingerprint chain, the longest cached complete prefix,
	and the steps remaining beyond it.
*/
type Resolution struct {
	Fingerprints []Fingerprint
	PrefixIndex  int    // index of the last step covered by cache; -1 if none.
	PrefixRoot   string // root path for PrefixIndex; empty if none.
	StepsToApply []def.Step
}

// The container's final fingerprint, naming the fully built root.
func (r Resolution) Final() Fingerprint {
	return r.Fingerprints[len(r.Fingerprints)-1]
}

func (r Resolution) FullyCached() bool {
	return len(r.StepsToApply) == 0
}

/*
	Resolve computes the container's fingerprint chain and finds the longest
	cached complete prefix.  Purely a read; acquiring the build lock and
	closing the resolve-then-build race is the builder's business.
*/
func (c *Cache) Resolve(container *def.Container, salt string) Resolution {
	fps := ChainFingerprints(container.Steps, salt)
	for i := len(fps) - 1; i >= 0; i-- {
		if c.StatusOf(fps[i]) == StatusComplete {
			return Resolution{
				Fingerprints: fps,
				PrefixIndex:  i,
				PrefixRoot:   c.RootPath(fps[i]),
				StepsToApply: container.Steps[i+1:],
			}
		}
	}
	return Resolution{
		Fingerprints: fps,
		PrefixIndex:  -1,
		StepsToApply: container.Steps,
	}
}

/*
	StatusOf reports the status of a committed entry.  Missing entries
	report as pending-free absence (empty status).  Corrupt entries (marker
	unreadable, or naming a different fingerprint, or rootfs missing) are
	quarantined and reported absent: a forced rebuild is always preferable
	to trusting a half-written root.
*/
func (c *Cache) StatusOf(fp Fingerprint) Status {
	entryPath := c.entryPath(fp)
	if _, err := os.Stat(entryPath); os.IsNotExist(err) {
		return Status("")
	}
	mkr, err := readMarker(entryPath)
	if err != nil || mkr.Fingerprint != string(fp) {
		c.quarantine(entryPath)
		return Status("")
	}
	if mkr.Status == StatusComplete {
		if _, err := os.Stat(filepath.Join(entryPath, "rootfs")); err != nil {
			c.quarantine(entryPath)
			return Status("")
		}
	}
	return mkr.Status
}

// RootPath returns where the built root for a fingerprint lives (whether or
// not it currently exists).
func (c *Cache) RootPath(fp Fingerprint) string {
	return filepath.Join(c.entryPath(fp), "rootfs")
}

func (c *Cache) entryPath(fp Fingerprint) string {
	return filepath.Join(c.basePath, "committed", string(fp))
}

/*
	StageArena creates a fresh staging arena for a build targeting the given
	fingerprint, marked pending.  The builder materializes into
	`<arena>/rootfs` and then promotes via `Commit` or `CommitFailed`.
*/
func (c *Cache) StageArena(fp Fingerprint) string {
	arena, err := ioutil.TempDir(filepath.Join(c.basePath, "stg"), "")
	if err != nil {
		panic(Error.New("unable to create staging arena: %s", err))
	}
	writeMarker(arena, marker{Fingerprint: string(fp), Status: StatusPending})
	return arena
}

/*
	Commit promotes a staging arena to the committed entry for its
	fingerprint.  Promotion is a single rename; a lost race against another
	promoter of the same fingerprint is tolerated (the winner's entry is
	equivalent by construction) and the loser's arena is discarded.
*/
func (c *Cache) Commit(fp Fingerprint, arena string) {
	writeMarker(arena, marker{Fingerprint: string(fp), Status: StatusComplete})
	c.promote(fp, arena)
}

/*
	CommitFailed records a failed build: the entry is promoted with failed
	status (and the step index that broke) so later invocations know the
	fingerprint was attempted.  A retry resolves back to the last complete
	prefix and builds again from there.
*/
func (c *Cache) CommitFailed(fp Fingerprint, arena string, stepIndex int) {
	writeMarker(arena, marker{Fingerprint: string(fp), Status: StatusFailed, StepIndex: stepIndex})
	c.promote(fp, arena)
}

func (c *Cache) promote(fp Fingerprint, arena string) {
	entryPath := c.entryPath(fp)
	// a failed entry may squat the path; rebuilds replace it.
	if mkr, err := readMarker(entryPath); err == nil && mkr.Status != StatusComplete {
		os.RemoveAll(entryPath)
	}
	err := os.Rename(arena, entryPath)
	if err != nil {
		if err2, ok := err.(*os.LinkError); ok &&
			(err2.Err == syscall.EBUSY || err2.Err == syscall.ENOTEMPTY || err2.Err == syscall.EEXIST) {
			// oh, fine.  somebody raced us to it.
			if err := os.RemoveAll(arena); err != nil {
				panic(Error.New("error cleaning up cancelled arena: %s", err))
			}
			return
		}
		panic(Error.New("error committing %q into cache: %s", fp, err))
	}
}

/*
	GC removes committed entries whose fingerprints are not in the keep set.
	Holders of advisory locks are not consulted: run GC only when no builds
	are in flight.  Persistent volumes live elsewhere and are untouched.
*/
func (c *Cache) GC(keep map[Fingerprint]struct{}) int {
	committed, err := ioutil.ReadDir(filepath.Join(c.basePath, "committed"))
	if err != nil {
		panic(Error.New("unable to scan cache: %s", err))
	}
	collected := 0
	for _, fi := range committed {
		if _, ok := keep[Fingerprint(fi.Name())]; ok {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.basePath, "committed", fi.Name())); err != nil {
			panic(Error.New("unable to collect cache entry %q: %s", fi.Name(), err))
		}
		collected++
	}
	return collected
}

func (c *Cache) quarantine(entryPath string) {
	aside := entryPath + ".corrupt." + time.Now().UTC().Format("20060102150405")
	if err := os.Rename(entryPath, aside); err != nil {
		panic(CorruptionError.New("unable to quarantine corrupt cache entry %q: %s", entryPath, err))
	}
}

func readMarker(entryPath string) (marker, error) {
	var mkr marker
	ser, err := ioutil.ReadFile(filepath.Join(entryPath, "status.json"))
	if err != nil {
		return mkr, err
	}
	err = codec.NewDecoderBytes(ser, markerHandle).Decode(&mkr)
	return mkr, err
}

func writeMarker(entryPath string, mkr marker) {
	var ser []byte
	if err := codec.NewEncoderBytes(&ser, markerHandle).Encode(mkr); err != nil {
		panic(Error.Wrap(err))
	}
	if err := ioutil.WriteFile(filepath.Join(entryPath, "status.json"), ser, 0644); err != nil {
		panic(Error.New("unable to write status marker: %s", err))
	}
}
