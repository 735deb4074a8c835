package placer

import (
	"sort"

	"go.polydawn.net/hutch/def"
)

/*
	Placer is the operation of getting material from one path to another,
	or of materializing a volume at a path.  Some placers can give you
	isolation (copies, overlays); others are plain windows onto the host
	(binds).

	An Emplacement is the live result; Teardown must release any mounts
	or scratch space it claimed.
*/
type Placer func(srcPath, destPath string, writable bool) Emplacement

type Emplacement interface {
	Teardown()
}

/*
	Assembly is a fully composed filesystem: a root plus all its volume
	emplacements.  Teardown unwinds everything in reverse order of
	placement, so nested mounts release before the mounts they live on.
*/
type Assembly interface {
	Teardown()
}

/*
	MountOp names one volume and where it lands inside the container.
*/
type MountOp struct {
	TargetPath string // absolute, interpreted inside the container root.
	Volume     def.Volume
}

type mountOpsByTarget []MountOp

func (a mountOpsByTarget) Len() int           { return len(a) }
func (a mountOpsByTarget) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a mountOpsByTarget) Less(i, j int) bool { return a[i].TargetPath < a[j].TargetPath }

/*
	Plan merges a container's volumes with a command's overrides and
	returns mount operations ordered parents-first, so a mount targeting
	`/tmp` is placed before one targeting `/tmp/.X11-unix`.  Overrides
	replace the container's entry for the same target outright.
*/
func Plan(container *def.Container, command *def.Command) []MountOp {
	merged := def.ResolvedVolumes(container, command)
	ops := make([]MountOp, 0, len(merged))
	for target, vol := range merged {
		ops = append(ops, MountOp{TargetPath: target, Volume: vol})
	}
	sort.Sort(mountOpsByTarget(ops))
	return ops
}
