package def

/*
	Container describes one named container: the ordered provisioning steps
	that produce its root filesystem, the volumes mounted over that root at
	run time, and the environment its commands receive.

	Immutable once loaded.
*/
type Container struct {
	Name    string
	Steps   []Step
	Volumes map[string]Volume // mount-point path -> spec
	Env     map[string]string
}

/*
	Command describes one named command: which container it runs in, its
	argv, the identity story (external identity for namespace mapping,
	internal identity to drop to), prerequisite commands, and per-command
	volume overrides.

	Volume overrides replace the container-level entry for the same mount
	point wholesale; they do not merge.
*/
type Command struct {
	Name           string
	Container      string
	Argv           []string
	UserID         int
	ExternalUserID int
	Prerequisites  []string
	Volumes        map[string]Volume
}

// The whole configuration document.
type Config struct {
	Containers map[string]*Container
	Commands   map[string]*Command
}

/*
	ResolvedVolumes layers a command's volume overrides over its container's
	volumes.  The returned map is freshly allocated; the inputs are not
	modified.
*/
func ResolvedVolumes(container *Container, command *Command) map[string]Volume {
	merged := make(map[string]Volume, len(container.Volumes)+len(command.Volumes))
	for target, vol := range container.Volumes {
		merged[target] = vol
	}
	for target, vol := range command.Volumes {
		merged[target] = vol
	}
	return merged
}
