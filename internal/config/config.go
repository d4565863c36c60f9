// Package config loads and validates the daemon configuration.
//
// Configuration is written in CUE. The file is unified with an embedded
// schema, so constraint violations (bad server ID, unknown log level,
// missing node name) are caught at load time with CUE's error positions
// rather than surfacing later as runtime misbehavior.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schema constrains the configuration file. Defaults marked with *
// apply when the file omits the field.
const schema = `
node: {
	// name identifies this node on the network.
	name: string & =~"^[A-Za-z0-9][A-Za-z0-9.-]*$"

	// sid is the unique server ID: a digit followed by two
	// alphanumerics, e.g. "1KC".
	sid: string & =~"^[0-9][A-Z0-9]{2}$"
}

database: {
	path: string | *"kestreld.db"
}

log: {
	level: "debug" | "info" | "warn" | "error" | *"info"
}

attributes: {
	// maxlogins is the default simultaneous-session cap applied when
	// an account carries no explicit value.
	maxlogins: int & >0 | *3
}
`

// Config is the decoded daemon configuration.
type Config struct {
	Node struct {
		Name string `json:"name"`
		SID  string `json:"sid"`
	} `json:"node"`

	Database struct {
		Path string `json:"path"`
	} `json:"database"`

	Log struct {
		Level string `json:"level"`
	} `json:"log"`

	Attributes struct {
		MaxLogins int `json:"maxlogins"`
	} `json:"attributes"`
}

// Load reads a CUE configuration file, unifies it with the schema,
// validates it and decodes the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(schema, cue.Filename("schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}

	fileVal := ctx.CompileBytes(data, cue.Filename(path))
	if err := fileVal.Err(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	unified := schemaVal.Unify(fileVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// LogLevel maps the configured level name to a slog level.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
