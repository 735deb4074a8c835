package placer

import (
	"os"
	"path/filepath"

	"github.com/inconshreveable/log15"
	"github.com/spacemonkeygo/errors"
	"github.com/spacemonkeygo/errors/try"

	"go.polydawn.net/hutch/def"
)

/*
	Assembler turns a mount plan into a live filesystem: every volume
	gets its target dir created and its placer invoked, in plan order.
	Persistent volumes are materialized under the assembler's volumes
	root, created on first use.
*/
type Assembler struct {
	volumesRoot string
}

func NewAssembler(volumesRoot string) *Assembler {
	if err := os.MkdirAll(volumesRoot, 0755); err != nil {
		panic(Error.New("unable to create volumes root: %s", err))
	}
	return &Assembler{volumesRoot}
}

/*
	Assemble places every op of the plan into the root.  On any failure
	partway through, the emplacements made so far are unwound (best
	effort) before the error continues up; nothing should stay mounted
	after a failed assembly.
*/
func (a *Assembler) Assemble(rootPath string, ops []MountOp, journal log15.Logger) Assembly {
	housekeeping := &assembly{}
	try.Do(func() {
		for _, op := range ops {
			destPath := filepath.Join(rootPath, filepath.Clean("/"+op.TargetPath))
			if err := os.MkdirAll(destPath, 0755); err != nil {
				panic(Error.New("unable to create mount target %q: %s", op.TargetPath, err))
			}
			journal.Debug("placing volume", "target", op.TargetPath, "kind", op.Volume.VolumeKind())
			housekeeping.record(a.place(destPath, op))
		}
	}).CatchAll(func(err error) {
		housekeeping.teardownQuietly(journal)
		panic(err)
	}).Done()
	return housekeeping
}

func (a *Assembler) place(destPath string, op MountOp) Emplacement {
	switch v := op.Volume.(type) {
	case def.Bind:
		if _, err := os.Stat(v.Source); err != nil {
			panic(MissingSourceError.New("bind volume for %q: source %q is not usable: %s", op.TargetPath, v.Source, err))
		}
		return BindPlacer(v.Source, destPath, !v.ReadOnly)
	case def.Persistent:
		src := filepath.Join(a.volumesRoot, v.Name)
		if err := os.MkdirAll(src, 0755); err != nil {
			panic(Error.New("unable to create persistent volume %q: %s", v.Name, err))
		}
		return BindPlacer(src, destPath, true)
	case def.Tmpfs:
		return TmpfsPlacer(destPath, v)
	default:
		panic(errors.ProgrammerError.New("unhandled volume kind %q", op.Volume.VolumeKind()))
	}
}

// VolumePath reports where a persistent volume's backing dir lives (whether
// or not it exists yet).
func (a *Assembler) VolumePath(name string) string {
	return filepath.Join(a.volumesRoot, name)
}

type assembly struct {
	emplacements []Emplacement
}

func (a *assembly) record(e Emplacement) {
	a.emplacements = append(a.emplacements, e)
}

// reverse order, so nested mounts release before their parents.
func (a *assembly) Teardown() {
	for i := len(a.emplacements) - 1; i >= 0; i-- {
		a.emplacements[i].Teardown()
	}
}

// like Teardown, but a failure to unwind one emplacement doesn't stop
// the rest; used when we're already on an error path.
func (a *assembly) teardownQuietly(journal log15.Logger) {
	for i := len(a.emplacements) - 1; i >= 0; i-- {
		e := a.emplacements[i]
		try.Do(func() {
			e.Teardown()
		}).CatchAll(func(err error) {
			journal.Warn("teardown failed during assembly unwind", "error", err)
		}).Done()
	}
}
