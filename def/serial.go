package def

import (
	"sort"

	"github.com/spacemonkeygo/errors"
	"github.com/ugorji/go/codec"
)

var codecHandle = &codec.JsonHandle{}

/*
	ParseConfig decodes a whole configuration document from its json serial
	form into the typed model.

	May panic with `*ConfigError` for unparsable or malformed documents.
	Semantic checks beyond shape (dangling references, etc) are the business
	of `Validate`.
*/
func ParseConfig(ser []byte) *Config {
	var raw interface{}
	if err := codec.NewDecoderBytes(ser, codecHandle).Decode(&raw); err != nil {
		panic(ConfigError.New("could not parse config: %s", errors.GetMessage(err)))
	}
	cfg := &Config{}
	if err := cfg.Unmarshal(raw); err != nil {
		panic(ConfigError.New("could not parse config: %s", err))
	}
	return cfg
}

func (cfg *Config) Unmarshal(ser interface{}) error {
	mp, ok := asMap(ser)
	if !ok {
		return newConfigValTypeError("config", "structure")
	}

	cfg.Containers = map[string]*Container{}
	if val, ok := mp["containers"]; ok {
		val2, ok := asMap(val)
		if !ok {
			return newConfigValTypeError("containers", "map")
		}
		for name, v := range val2 {
			cnt := &Container{Name: name}
			if err := cnt.Unmarshal(v); err != nil {
				return err
			}
			cfg.Containers[name] = cnt
		}
	}

	cfg.Commands = map[string]*Command{}
	if val, ok := mp["commands"]; ok {
		val2, ok := asMap(val)
		if !ok {
			return newConfigValTypeError("commands", "map")
		}
		for name, v := range val2 {
			cmd := &Command{Name: name}
			if err := cmd.Unmarshal(v); err != nil {
				return err
			}
			cfg.Commands[name] = cmd
		}
	}

	return nil
}

func (cnt *Container) Unmarshal(ser interface{}) error {
	// special: expect `Name` to have been set by caller.

	mp, ok := asMap(ser)
	if !ok {
		return newConfigValTypeError("container", "structure")
	}

	val, ok := mp["setup"]
	if !ok {
		return newConfigValTypeError("setup", "list")
	}
	val2, ok := val.([]interface{})
	if !ok {
		return newConfigValTypeError("setup", "list")
	}
	cnt.Steps = make([]Step, len(val2))
	for i, v := range val2 {
		step, err := UnmarshalStep(v)
		if err != nil {
			return err
		}
		cnt.Steps[i] = step
	}

	if val, ok := mp["volumes"]; ok {
		val2, ok := asMap(val)
		if !ok {
			return newConfigValTypeError("volumes", "map")
		}
		cnt.Volumes = make(map[string]Volume, len(val2))
		for target, v := range val2 {
			vol, err := UnmarshalVolume(v)
			if err != nil {
				return err
			}
			cnt.Volumes[target] = vol
		}
	}

	if val, ok := mp["environ"]; ok {
		val2, ok := asMap(val)
		if !ok {
			return newConfigValTypeError("environ", "map")
		}
		cnt.Env = make(map[string]string, len(val2))
		for k, v := range val2 {
			str, ok := v.(string)
			if !ok {
				return newConfigValTypeError("environ."+k, "string")
			}
			cnt.Env[k] = str
		}
	}

	return nil
}

func (cmd *Command) Unmarshal(ser interface{}) error {
	// special: expect `Name` to have been set by caller.

	mp, ok := asMap(ser)
	if !ok {
		return newConfigValTypeError("command", "structure")
	}

	val, ok := mp["container"]
	if !ok {
		return newConfigValTypeError("container", "string")
	}
	cmd.Container, ok = val.(string)
	if !ok {
		return newConfigValTypeError("container", "string")
	}

	val, ok = mp["run"]
	if !ok {
		return newConfigValTypeError("run", "list of strings")
	}
	val2, ok := val.([]interface{})
	if !ok {
		return newConfigValTypeError("run", "list of strings")
	}
	cmd.Argv = make([]string, len(val2))
	for i, v := range val2 {
		cmd.Argv[i], ok = v.(string)
		if !ok {
			return newConfigValTypeError("run", "list of strings")
		}
	}

	if val, ok := mp["user-id"]; ok {
		n, ok := asInt(val)
		if !ok {
			return newConfigValTypeError("user-id", "integer")
		}
		cmd.UserID = int(n)
	}

	if val, ok := mp["external-user-id"]; ok {
		n, ok := asInt(val)
		if !ok {
			return newConfigValTypeError("external-user-id", "integer")
		}
		cmd.ExternalUserID = int(n)
	}

	if val, ok := mp["prerequisites"]; ok {
		val2, ok := val.([]interface{})
		if !ok {
			return newConfigValTypeError("prerequisites", "list of strings")
		}
		cmd.Prerequisites = make([]string, len(val2))
		for i, v := range val2 {
			cmd.Prerequisites[i], ok = v.(string)
			if !ok {
				return newConfigValTypeError("prerequisites", "list of strings")
			}
		}
	}

	if val, ok := mp["volumes"]; ok {
		val2, ok := asMap(val)
		if !ok {
			return newConfigValTypeError("volumes", "map")
		}
		cmd.Volumes = make(map[string]Volume, len(val2))
		for target, v := range val2 {
			vol, err := UnmarshalVolume(v)
			if err != nil {
				return err
			}
			cmd.Volumes[target] = vol
		}
	}

	return nil
}

/*
	SortedKeys returns the keys of a string map in sorted order.  The serial
	form uses maps freely, but everything downstream that cares about
	determinism (fingerprinting, mount planning) should iterate in this
	order.
*/
func SortedKeys[V any](mp map[string]V) []string {
	keys := make([]string, 0, len(mp))
	for k := range mp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// codec may hand back map[string]interface{} or map[interface{}]interface{}
// depending on handle configuration; flatten to the former.
func asMap(ser interface{}) (map[string]interface{}, bool) {
	switch mp := ser.(type) {
	case map[string]interface{}:
		return mp, true
	case map[interface{}]interface{}:
		flat := make(map[string]interface{}, len(mp))
		for k, v := range mp {
			str, ok := k.(string)
			if !ok {
				return nil, false
			}
			flat[str] = v
		}
		return flat, true
	default:
		return nil, false
	}
}

func asInt(ser interface{}) (int64, bool) {
	switch n := ser.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
