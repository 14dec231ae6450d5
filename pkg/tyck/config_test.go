package tyck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/tyck/pkg/hm"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	writeFile(t, path, `
[check]
max_depth = 64
jobs = 2

[globals]
log = "(x: number) => boolean"
origin = "{ x: number; y: number }"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.Path)
	assert.Equal(t, 64, config.Check.MaxDepth)
	assert.Equal(t, 2, config.Check.Jobs)

	env, err := config.Env()
	require.NoError(t, err)
	assert.Equal(t, []string{"log", "origin"}, env.Names())

	log, found := env.Lookup("log")
	require.True(t, found)
	assert.Equal(t, hm.NewFnType(hm.Boolean, hm.Param{Name: "x", Type: hm.Number}), log)

	ctx := config.Context(context.Background())
	assert.Equal(t, 64, MaxDepthFromContext(ctx))
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	writeFile(t, path, `
check:
  jobs: 3
globals:
  flag: boolean
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, config.Check.Jobs)

	env, err := config.Env()
	require.NoError(t, err)
	flag, found := env.Lookup("flag")
	require.True(t, found)
	assert.Equal(t, hm.Boolean, flag)
}

func TestLoadConfigEmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.Path)
	assert.Empty(t, config.Globals)

	env, err := config.Env()
	require.NoError(t, err)
	assert.Zero(t, env.Len())
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "bad.toml")
	writeFile(t, tomlPath, "[check]\nmax_dept = 3\n")
	_, err := LoadConfig(tomlPath)
	require.ErrorContains(t, err, "unknown key check.max_dept")

	yamlPath := filepath.Join(dir, "bad.yml")
	writeFile(t, yamlPath, "check:\n  jbos: 1\n")
	_, err = LoadConfig(yamlPath)
	require.ErrorContains(t, err, "jbos")

	_, err = LoadConfig(filepath.Join(dir, "config.json"))
	require.ErrorContains(t, err, "unsupported config format")
}

func TestConfigEnvRejectsBadGlobals(t *testing.T) {
	config := &Config{Globals: map[string]string{"oops": "string"}}
	_, err := config.Env()
	require.ErrorContains(t, err, "global oops: unknown type string")

	var nilConfig *Config
	env, err := nilConfig.Env()
	require.NoError(t, err)
	assert.Nil(t, env)
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, config, err := FindConfig(nested)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Nil(t, config)

	writeFile(t, filepath.Join(root, ConfigFileName), "[check]\njobs = 5\n")
	path, config, err = FindConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ConfigFileName), path)
	assert.Equal(t, 5, config.Check.Jobs)
}

func TestConfigMerge(t *testing.T) {
	base := &Config{
		Check:   CheckConfig{MaxDepth: 10, Jobs: 1},
		Globals: map[string]string{"a": "number", "b": "number"},
	}
	base.Merge(&Config{
		Check:   CheckConfig{Jobs: 4},
		Globals: map[string]string{"b": "boolean"},
	})
	base.Merge(nil)

	assert.Equal(t, CheckConfig{MaxDepth: 10, Jobs: 4}, base.Check)
	assert.Equal(t, map[string]string{"a": "number", "b": "boolean"}, base.Globals)

	empty := &Config{}
	empty.Merge(&Config{Globals: map[string]string{"c": "boolean"}})
	assert.Equal(t, "boolean", empty.Globals["c"])
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("TYCK_MAX_DEPTH", "128")
	t.Setenv("TYCK_JOBS", "")

	config := &Config{Check: CheckConfig{Jobs: 7}}
	require.NoError(t, config.ApplyEnv())
	assert.Equal(t, CheckConfig{MaxDepth: 128, Jobs: 7}, config.Check)

	t.Setenv("TYCK_JOBS", "lots")
	require.ErrorContains(t, config.ApplyEnv(), "TYCK_JOBS")
}
