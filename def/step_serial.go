package def

/*
	UnmarshalStep decodes one step from its serial envelope form:
	a structure with a "kind" tag and a kind-specific payload.

	Unknown kinds are an error, never a silent skip; the step list is a
	closed variant.
*/
func UnmarshalStep(ser interface{}) (Step, error) {
	mp, ok := asMap(ser)
	if !ok {
		return nil, newConfigValTypeError("setup step", "structure")
	}
	kind, ok := mp["kind"].(string)
	if !ok {
		return nil, newConfigValTypeError("setup step kind", "string")
	}

	switch kind {
	case "base-distro":
		release, ok := mp["release"].(string)
		if !ok || release == "" {
			return nil, newConfigValTypeError("base-distro release", "non-empty string")
		}
		return BaseDistro{Release: release}, nil
	case "enable-repo":
		repo, ok := mp["repo"].(string)
		if !ok || repo == "" {
			return nil, newConfigValTypeError("enable-repo repo", "non-empty string")
		}
		return EnableRepo{Repo: repo}, nil
	case "install":
		raw, ok := mp["packages"].([]interface{})
		if !ok || len(raw) == 0 {
			return nil, newConfigValTypeError("install packages", "non-empty list of strings")
		}
		packages := make([]string, len(raw))
		for i, v := range raw {
			packages[i], ok = v.(string)
			if !ok {
				return nil, newConfigValTypeError("install packages", "non-empty list of strings")
			}
		}
		return Install{Packages: packages}, nil
	case "shell":
		script, ok := mp["script"].(string)
		if !ok || script == "" {
			return nil, newConfigValTypeError("shell script", "non-empty string")
		}
		return Shell{Script: script}, nil
	case "ensure-dir":
		path, ok := mp["path"].(string)
		if !ok || path == "" {
			return nil, newConfigValTypeError("ensure-dir path", "non-empty string")
		}
		mode := uint32(0755)
		if raw, ok := mp["mode"]; ok {
			m, err := parseMode(raw)
			if err != nil {
				return nil, err
			}
			mode = m
		}
		return EnsureDir{Path: path, Mode: mode}, nil
	default:
		return nil, ErrConfigParsing{
			Key: "setup step kind",
			Msg: "unknown setup step kind \"" + kind + "\"",
		}
	}
}

/*
	StepEnvelope re-encodes a step into its (plain-map) envelope form.

	This is the canonical surface the fingerprint engine hashes: exactly the
	data the user declared, no derived or ambient state.  Keep it in sync
	with `UnmarshalStep`.
*/
func StepEnvelope(s Step) map[string]interface{} {
	switch s2 := s.(type) {
	case BaseDistro:
		return map[string]interface{}{"kind": "base-distro", "release": s2.Release}
	case EnableRepo:
		return map[string]interface{}{"kind": "enable-repo", "repo": s2.Repo}
	case Install:
		return map[string]interface{}{"kind": "install", "packages": s2.Packages}
	case Shell:
		return map[string]interface{}{"kind": "shell", "script": s2.Script}
	case EnsureDir:
		return map[string]interface{}{"kind": "ensure-dir", "path": s2.Path, "mode": s2.Mode}
	default:
		panic(ConfigError.New("unknown step kind %q", s.StepKind()))
	}
}
