package tyck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vito/tyck/pkg/hm"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file searched for by FindConfig.
const ConfigFileName = "tyck.toml"

// Config represents a tyck.toml project configuration file, or a YAML
// environment file passed with --env.
type Config struct {
	Check CheckConfig `toml:"check" yaml:"check"`

	// Globals maps names to type annotations, e.g.
	// log = "(x: number) => boolean". They form the initial environment.
	Globals map[string]string `toml:"globals" yaml:"globals"`

	// Path is the file the config was loaded from, if any.
	Path string `toml:"-" yaml:"-"`
}

// CheckConfig tunes the checker.
type CheckConfig struct {
	// MaxDepth limits term nesting; zero means DefaultMaxDepth.
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`

	// Jobs limits how many files are checked at once; zero means one per CPU.
	Jobs int `toml:"jobs" yaml:"jobs"`
}

// LoadConfig loads a .toml, .yaml or .yml configuration file.
func LoadConfig(path string) (*Config, error) {
	var config Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, &config)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing %s: unknown key %s", path, undecoded[0])
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		// an empty document is an empty config
		if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q: %s", ext, path)
	}
	config.Path = path
	return &config, nil
}

// FindConfig searches for tyck.toml starting from dir and walking up to
// parent directories, stopping at a .git boundary. Returns ("", nil, nil)
// if not found.
func FindConfig(dir string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			config, err := LoadConfig(path)
			if err != nil {
				return "", nil, err
			}
			slog.Debug("loaded project config", "path", path)
			return path, config, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// Merge overlays other onto c: non-zero settings and all globals from other
// take precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Check.MaxDepth != 0 {
		c.Check.MaxDepth = other.Check.MaxDepth
	}
	if other.Check.Jobs != 0 {
		c.Check.Jobs = other.Check.Jobs
	}
	if len(other.Globals) > 0 && c.Globals == nil {
		c.Globals = make(map[string]string, len(other.Globals))
	}
	for name, typ := range other.Globals {
		c.Globals[name] = typ
	}
}

// ApplyEnv reads TYCK_MAX_DEPTH and TYCK_JOBS.
func (c *Config) ApplyEnv() error {
	for _, v := range []struct {
		name string
		dest *int
	}{
		{"TYCK_MAX_DEPTH", &c.Check.MaxDepth},
		{"TYCK_JOBS", &c.Check.Jobs},
	} {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: expected a non-negative integer, got %q", v.name, raw)
		}
		*v.dest = n
	}
	return nil
}

// Env builds the initial type environment from Globals.
func (c *Config) Env() (*hm.Env, error) {
	if c == nil {
		return nil, nil
	}
	names := make([]string, 0, len(c.Globals))
	for name := range c.Globals {
		names = append(names, name)
	}
	slices.Sort(names)

	var env *hm.Env
	for _, name := range names {
		t, err := ParseType(c.Globals[name])
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", name, err)
		}
		env = env.Extend(name, t)
	}
	return env, nil
}

// Context applies checker settings to ctx.
func (c *Config) Context(ctx context.Context) context.Context {
	if c != nil && c.Check.MaxDepth > 0 {
		ctx = ContextWithMaxDepth(ctx, c.Check.MaxDepth)
	}
	return ctx
}
