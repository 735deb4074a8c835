package def

/*
	Step is the closed variant over provisioning step kinds.

	Each kind is pure data with a stable serial tag; the builder package owns
	the act of applying one to a filesystem.  Steps are required (by
	step-author contract, not engine enforcement) to be effectively
	idempotent: re-applying the same step sequence to the same starting root
	must be safe.

	Adding a new step kind means adding a new variant here plus an apply arm
	in the builder; there is deliberately no open registration mechanism.
*/
type Step interface {
	StepKind() string
}

// Unpacks the named base distribution image as the bottom layer of a root.
type BaseDistro struct {
	Release string
}

// Enables an extra package repository by appending its source line.
type EnableRepo struct {
	Repo string
}

// Installs packages with the distribution's package manager.
type Install struct {
	Packages []string
}

// Runs an arbitrary shell script, chrooted into the root under construction.
type Shell struct {
	Script string
}

// Ensures a directory exists at the given path with the given mode.
type EnsureDir struct {
	Path string
	Mode uint32
}

func (BaseDistro) StepKind() string { return "base-distro" }
func (EnableRepo) StepKind() string { return "enable-repo" }
func (Install) StepKind() string    { return "install" }
func (Shell) StepKind() string      { return "shell" }
func (EnsureDir) StepKind() string  { return "ensure-dir" }
