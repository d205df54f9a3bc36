// Package config loads run configuration and environment files from YAML,
// grounded on the teacher's filesystem-backed stores (internal/storage/
// filesystem/environment_store.go), which marshal/unmarshal core types with
// gopkg.in/yaml.v3 rather than hand-rolled parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/questapi/quest/internal/core"
	"github.com/questapi/quest/internal/interpolate"
)

// RunFile is the on-disk shape of a run configuration (the CLI's --config
// flag, spec.md §6): everything core.RunOptions needs plus an optional
// inline data fixture for the CLI-data iteration source (spec.md §4.5).
type RunFile struct {
	Environment    string              `yaml:"environment,omitempty"`
	Iterations     int                 `yaml:"iterations,omitempty"`
	Filter         string              `yaml:"filter,omitempty"`
	AllowParallel  bool                `yaml:"allowParallel,omitempty"`
	MaxConcurrency int                 `yaml:"maxConcurrency,omitempty"`
	Bail           bool                `yaml:"bail,omitempty"`
	DelayMillis    int                 `yaml:"delayMs,omitempty"`
	JarPersist     bool                `yaml:"jarPersist,omitempty"`
	TimeoutMillis  int                 `yaml:"timeoutMs,omitempty"`
	Data           []map[string]string `yaml:"data,omitempty"`
}

// LoadRunFile reads and parses a run configuration file.
func LoadRunFile(path string) (*RunFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read run file %q: %w", path, err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(content, &rf); err != nil {
		return nil, fmt.Errorf("config: failed to parse run file %q: %w", path, err)
	}
	return &rf, nil
}

// ToRunOptions converts the on-disk shape into core.RunOptions, ready for
// Runner.Run after Normalize().
func (rf *RunFile) ToRunOptions() core.RunOptions {
	opts := core.RunOptions{
		EnvironmentName: rf.Environment,
		CLIData:         rf.Data,
		Iterations:      rf.Iterations,
		Filter:          rf.Filter,
		AllowParallel:   rf.AllowParallel,
		MaxConcurrency:  rf.MaxConcurrency,
		Bail:            rf.Bail,
		JarPersist:      rf.JarPersist,
	}
	if rf.DelayMillis > 0 {
		opts.Delay = time.Duration(rf.DelayMillis) * time.Millisecond
	}
	if rf.TimeoutMillis > 0 {
		opts.DefaultTimeout = time.Duration(rf.TimeoutMillis) * time.Millisecond
	}
	return opts
}

// environmentFile is the on-disk shape of an environment file: a flat
// key/value map, matching the teacher's EnvironmentStore.toStorageFormat.
type environmentFile struct {
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
}

// LoadEnvironment reads an environment file into a core.Environment with a
// populated VariableSet.
func LoadEnvironment(path string) (*core.Environment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read environment file %q: %w", path, err)
	}
	var ef environmentFile
	if err := yaml.Unmarshal(content, &ef); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment file %q: %w", path, err)
	}
	vars := interpolate.NewVariableSet()
	for k, v := range ef.Variables {
		vars.Set(k, v)
	}
	return &core.Environment{Name: ef.Name, Vars: vars}, nil
}

// SaveEnvironment writes a core.Environment back out in the same shape
// LoadEnvironment reads.
func SaveEnvironment(path string, env *core.Environment) error {
	ef := environmentFile{Name: env.Name, Variables: env.Vars.All()}
	content, err := yaml.Marshal(ef)
	if err != nil {
		return fmt.Errorf("config: failed to marshal environment %q: %w", env.Name, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("config: failed to write environment file %q: %w", path, err)
	}
	return nil
}
