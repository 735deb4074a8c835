package def

/*
	UnmarshalVolume decodes one volume spec from its serial envelope form.
	Same closed-variant rules as steps: unknown kinds are an error.
*/
func UnmarshalVolume(ser interface{}) (Volume, error) {
	mp, ok := asMap(ser)
	if !ok {
		return nil, newConfigValTypeError("volume", "structure")
	}
	kind, ok := mp["kind"].(string)
	if !ok {
		return nil, newConfigValTypeError("volume kind", "string")
	}

	switch kind {
	case "persistent":
		name, ok := mp["name"].(string)
		if !ok || name == "" {
			return nil, newConfigValTypeError("persistent name", "non-empty string")
		}
		return Persistent{Name: name}, nil
	case "tmpfs":
		vol := Tmpfs{Mode: 01777}
		if raw, ok := mp["size"]; ok {
			size, err := parseSize(raw)
			if err != nil {
				return nil, err
			}
			vol.Size = size
		}
		if raw, ok := mp["mode"]; ok {
			mode, err := parseMode(raw)
			if err != nil {
				return nil, err
			}
			vol.Mode = mode
		}
		if raw, ok := mp["subdirs"]; ok {
			list, ok := raw.([]interface{})
			if !ok {
				return nil, newConfigValTypeError("tmpfs subdirs", "list")
			}
			vol.Subdirs = make([]Subdir, len(list))
			for i, v := range list {
				sub, err := unmarshalSubdir(v)
				if err != nil {
					return nil, err
				}
				vol.Subdirs[i] = sub
			}
		}
		return vol, nil
	case "bind-rw", "bind-ro":
		source, ok := mp["source"].(string)
		if !ok || source == "" {
			return nil, newConfigValTypeError("bind source", "non-empty string")
		}
		return Bind{Source: source, ReadOnly: kind == "bind-ro"}, nil
	default:
		return nil, ErrConfigParsing{
			Key: "volume kind",
			Msg: "unknown volume kind \"" + kind + "\"",
		}
	}
}

func unmarshalSubdir(ser interface{}) (Subdir, error) {
	// shorthand: a bare string is a subdir with default mode.
	if path, ok := ser.(string); ok {
		return Subdir{Path: path, Mode: 0755}, nil
	}
	mp, ok := asMap(ser)
	if !ok {
		return Subdir{}, newConfigValTypeError("tmpfs subdir", "string or structure")
	}
	path, ok := mp["path"].(string)
	if !ok || path == "" {
		return Subdir{}, newConfigValTypeError("tmpfs subdir path", "non-empty string")
	}
	sub := Subdir{Path: path, Mode: 0755}
	if raw, ok := mp["mode"]; ok {
		mode, err := parseMode(raw)
		if err != nil {
			return Subdir{}, err
		}
		sub.Mode = mode
	}
	return sub, nil
}
