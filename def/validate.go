package def

import (
	"strings"
)

// Convenience method that runs all config validation.
// Modifies the config (env defaulting only).
func ValidateAll(cfg *Config) {
	ValidateBasic(cfg)
	ValidateConvenience(cfg)
}

/*
	Checks a config for irrecoverable semantic errors: dangling references,
	empty step lists, empty argvs, relative mount points.

	Will NOT modify the config.  Panics with `*ValidationError`; since
	nothing has had a side effect yet, fixing the config and retrying is
	always safe.
*/
func ValidateBasic(cfg *Config) {
	for _, name := range SortedKeys(cfg.Containers) {
		cnt := cfg.Containers[name]
		if len(cnt.Steps) < 1 {
			panic(ValidationError.New("container %q needs at least one setup step", name))
		}
		validateVolumes(name, cnt.Volumes)
	}
	for _, name := range SortedKeys(cfg.Commands) {
		cmd := cfg.Commands[name]
		if _, ok := cfg.Containers[cmd.Container]; !ok {
			panic(ValidationError.New("command %q references unknown container %q", name, cmd.Container))
		}
		if len(cmd.Argv) < 1 {
			panic(ValidationError.New("command %q has an empty argv", name))
		}
		if cmd.UserID < 0 || cmd.ExternalUserID < 0 {
			panic(ValidationError.New("command %q has a negative identity", name))
		}
		for _, prereq := range cmd.Prerequisites {
			if _, ok := cfg.Commands[prereq]; !ok {
				panic(ValidationError.New("command %q references unknown prerequisite %q", name, prereq))
			}
		}
		validateVolumes("command "+name, cmd.Volumes)
	}
}

func validateVolumes(owner string, volumes map[string]Volume) {
	for _, target := range SortedKeys(volumes) {
		if !strings.HasPrefix(target, "/") {
			panic(ValidationError.New("%s: volume mount point %q must be absolute", owner, target))
		}
		if vol, ok := volumes[target].(Tmpfs); ok {
			for _, sub := range vol.Subdirs {
				if strings.HasPrefix(sub.Path, "/") || strings.Contains(sub.Path, "..") {
					panic(ValidationError.New("%s: tmpfs subdir %q must be a relative path within the mount", owner, sub.Path))
				}
			}
		}
	}
}

// Modifies a config with a few tweaks that make it more convenient for human-generated input.
// * If a container declares no PATH, commands get a basic sane one.
//   * To disable, set the container's environ PATH to any string (including "") as desired.
func ValidateConvenience(cfg *Config) {
	for _, cnt := range cfg.Containers {
		if cnt.Env == nil {
			cnt.Env = map[string]string{}
		}
		if _, ok := cnt.Env["PATH"]; !ok {
			cnt.Env["PATH"] = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
		}
	}
}
