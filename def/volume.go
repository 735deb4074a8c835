package def

/*
	Volume is the closed variant over mount specifications.

	The placer package turns these into concrete mount operations; this
	package only describes intent.
*/
type Volume interface {
	VolumeKind() string
}

/*
	Durable named storage surviving across invocations.  Two containers (or
	two commands) naming the same persistent volume share its contents.
	Nothing in hutch ever deletes persistent volume data.
*/
type Persistent struct {
	Name string
}

/*
	Ephemeral in-memory filesystem, recreated empty on every invocation.
	Subdirs are pre-created (with their modes) immediately after the mount,
	before anything may be mounted beneath them.
*/
type Tmpfs struct {
	Size    int64
	Mode    uint32
	Subdirs []Subdir
}

type Subdir struct {
	Path string
	Mode uint32
}

/*
	Binds an existing host path into the container.  The source must already
	exist by mount time (created by a prior step or a prerequisite command);
	a missing source is a hard error, never a silent skip.
*/
type Bind struct {
	Source   string
	ReadOnly bool
}

func (Persistent) VolumeKind() string { return "persistent" }
func (Tmpfs) VolumeKind() string      { return "tmpfs" }
func (v Bind) VolumeKind() string {
	if v.ReadOnly {
		return "bind-ro"
	}
	return "bind-rw"
}
