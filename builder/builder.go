package builder

import (
	"os"
	"path/filepath"

	"github.com/inconshreveable/log15"
	"github.com/spacemonkeygo/errors"
	"github.com/spacemonkeygo/errors/try"

	"go.polydawn.net/hutch/cache"
	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/lib/fs"
)

/*
	Builder turns a container's step chain into a committed root in the
	cache, reusing whatever prefix of the chain is already built.

	Every step gets its own cache entry: step i's root is step i-1's root
	copied forward with step i applied on top.  A later config edit that
	only touches step k therefore rebuilds from k, not from scratch.
*/
type Builder struct {
	cache     *cache.Cache
	imagesDir string // where base distro tarballs live.
	salt      string // folded into every fingerprint; bump to force rebuilds.
}

func New(c *cache.Cache, imagesDir string, salt string) *Builder {
	return &Builder{c, imagesDir, salt}
}

/*
	Ensure returns the path of the container's fully built root, building
	whatever suffix of the step chain the cache does not already hold.

	The returned root belongs to the cache: treat it as read-only.

	Each step serializes on the advisory lock for its own fingerprint, so
	concurrent invocations building containers that merely *share a prefix*
	still provision each shared step at most once: the loser re-checks the
	cache after acquiring the lock and usually finds the work already done.
	MAY PANIC: `SetupError` for environmental problems, `StepError` when a
	step itself fails (the failure is also committed to the cache so the
	attempt is visible).
*/
func (b *Builder) Ensure(container *def.Container, journal log15.Logger) string {
	res := b.cache.Resolve(container, b.salt)
	if res.FullyCached() {
		journal.Debug("build cache hit", "container", container.Name, "fingerprint", string(res.Final()))
		return res.PrefixRoot
	}

	journal.Info("building container",
		"container", container.Name,
		"cachedSteps", res.PrefixIndex+1,
		"stepsToApply", len(res.StepsToApply),
	)

	prevRoot := res.PrefixRoot
	for i := res.PrefixIndex + 1; i < len(container.Steps); i++ {
		prevRoot = b.ensureStep(container, i, res.Fingerprints[i], prevRoot, journal)
	}
	return prevRoot
}

// builds one step under its fingerprint lock, unless a concurrent holder
// already committed it while we waited.
func (b *Builder) ensureStep(container *def.Container, i int, fp cache.Fingerprint, prevRoot string, journal log15.Logger) string {
	lock := b.cache.Lock(fp)
	defer lock.Unlock()

	if b.cache.StatusOf(fp) == cache.StatusComplete {
		journal.Debug("step finished by another holder", "container", container.Name, "step", i)
		return b.cache.RootPath(fp)
	}

	step := container.Steps[i]
	journal.Info("applying step", "container", container.Name, "step", i, "kind", step.StepKind())

	arena := b.cache.StageArena(fp)
	rootfs := filepath.Join(arena, "rootfs")
	if err := os.Mkdir(rootfs, 0755); err != nil {
		panic(SetupError.New("unable to prepare build arena: %s", err))
	}
	if prevRoot != "" {
		fs.CopyTree(prevRoot, rootfs)
	}

	try.Do(func() {
		b.applyStep(rootfs, i, step, container.Env, journal)
	}).Catch(SetupError, func(e *errors.Error) {
		// environmental problem; the fingerprint itself is fine.
		os.RemoveAll(arena)
		panic(e)
	}).CatchAll(func(err error) {
		b.cache.CommitFailed(fp, arena, i)
		panic(err)
	}).Done()

	b.cache.Commit(fp, arena)
	return b.cache.RootPath(fp)
}

// Final reports the container's final fingerprint without building anything.
func (b *Builder) Final(container *def.Container) cache.Fingerprint {
	return b.cache.Resolve(container, b.salt).Final()
}
