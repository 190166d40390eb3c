package loader

import (
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// EnvLoader maps prefixed environment variables onto setting paths.
// Explicit mappings win; any other ARBOR_SECTION_NAME variable becomes
// section.name with the rest of the name lower cased and kept in
// snake case.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
	environ func() []string
}

// NewEnvLoader creates a loader for variables starting with prefix,
// including its trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix, mapping: map[string]string{}, environ: os.Environ}
}

// Map binds an environment variable to a setting path.
func (l *EnvLoader) Map(envVar, path string) *EnvLoader {
	l.mapping[envVar] = path
	return l
}

// Load reads the environment. Empty values are kept as empty strings.
func (l *EnvLoader) Load() (map[string]any, error) {
	out := make(map[string]any)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
			if path == "" {
				continue
			}
		}
		Set(out, path, ParseValue(value))
	}
	return out, nil
}

// envToPath converts ARBOR_RENDERER_MAX_WIDTH to renderer.max_width.
// A variable with no section part maps to "".
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, rest, ok := strings.Cut(name, "_")
	if !ok || section == "" || rest == "" {
		return ""
	}
	return section + "." + rest
}

// ParseValue interprets an environment string: integers, floats with a
// decimal point, true/false/yes/no/on/off, then JSON arrays and objects.
// Anything else stays a string.
func ParseValue(s string) any {
	if s == "" {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if (strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")) && gjson.Valid(s) {
		return jsonValue(gjson.Parse(s))
	}
	return s
}

// jsonValue converts a gjson result, keeping whole numbers as int64 so
// they decode like TOML integers.
func jsonValue(r gjson.Result) any {
	switch {
	case r.IsArray():
		var out []any
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, jsonValue(v))
			return true
		})
		if out == nil {
			out = []any{}
		}
		return out
	case r.IsObject():
		out := map[string]any{}
		r.ForEach(func(k, v gjson.Result) bool {
			out[k.String()] = jsonValue(v)
			return true
		})
		return out
	case r.Type == gjson.Number:
		if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return i
		}
		return r.Float()
	default:
		return r.Value()
	}
}
