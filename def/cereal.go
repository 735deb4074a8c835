package def

import (
	"strconv"
	"strings"
)

// Accepted size suffixes, decimal and binary flavors both.
var sizeSuffixes = []struct {
	suffix string
	factor int64
}{
	{"Ki", 1 << 10},
	{"Mi", 1 << 20},
	{"Gi", 1 << 30},
	{"K", 1000},
	{"M", 1000 * 1000},
	{"G", 1000 * 1000 * 1000},
}

/*
	parseSize accepts either a plain byte count or a humane string like
	"100Mi" / "2G".
*/
func parseSize(ser interface{}) (int64, error) {
	if n, ok := asInt(ser); ok {
		if n < 0 {
			return 0, newConfigValTypeError("size", "non-negative byte count")
		}
		return n, nil
	}
	str, ok := ser.(string)
	if !ok {
		return 0, newConfigValTypeError("size", "byte count or string like \"100Mi\"")
	}
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(str, s.suffix) {
			n, err := strconv.ParseInt(strings.TrimSuffix(str, s.suffix), 10, 64)
			if err != nil || n < 0 {
				return 0, newConfigValTypeError("size", "byte count or string like \"100Mi\"")
			}
			return n * s.factor, nil
		}
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil || n < 0 {
		return 0, newConfigValTypeError("size", "byte count or string like \"100Mi\"")
	}
	return n, nil
}

/*
	parseMode accepts either a number (taken at face value: json has no octal
	literals, so a bare number had better already be the mode you mean) or a
	string, which is parsed as octal in the unix tradition ("01777").
*/
func parseMode(ser interface{}) (uint32, error) {
	if str, ok := ser.(string); ok {
		n, err := strconv.ParseUint(str, 8, 32)
		if err != nil || n > 07777 {
			return 0, newConfigValTypeError("mode", "octal string like \"01777\"")
		}
		return uint32(n), nil
	}
	if n, ok := asInt(ser); ok {
		if n < 0 || n > 07777 {
			return 0, newConfigValTypeError("mode", "file mode")
		}
		return uint32(n), nil
	}
	return 0, newConfigValTypeError("mode", "file mode")
}
