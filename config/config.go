// Package config loads pybundle settings from pybundle.toml, pybundle.yaml or
// the [tool.pybundle] table of pyproject.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the resolved set of options for a run.
type Config struct {
	// SrcDir holds one subdirectory per Lambda function.
	SrcDir string `toml:"src_dir" yaml:"src_dir"`
	// SourceRoot is the directory absolute first-party imports resolve against.
	SourceRoot string `toml:"source_root" yaml:"source_root"`
	// Handler is the entry file name inside each function directory.
	Handler string `toml:"handler" yaml:"handler"`
	// DistDir receives one bundle per function.
	DistDir string `toml:"dist_dir" yaml:"dist_dir"`
	// Clean removes DistDir before writing bundles.
	Clean bool `toml:"clean" yaml:"clean"`

	Python       string   `toml:"python" yaml:"python"`
	Probe        bool     `toml:"probe" yaml:"probe"`
	PackagePaths []string `toml:"package_paths" yaml:"package_paths"`

	FirstParty         []string          `toml:"first_party" yaml:"first_party"`
	ThirdParty         []string          `toml:"third_party" yaml:"third_party"`
	RequirementAliases map[string]string `toml:"requirement_aliases" yaml:"requirement_aliases"`
	SkipDirs           []string          `toml:"skip_dirs" yaml:"skip_dirs"`
}

// Default returns the conventional Lambda project layout.
func Default() Config {
	return Config{
		SrcDir:     "./src/lambdas",
		SourceRoot: "./src",
		Handler:    "handler.py",
		DistDir:    "./dist",
		Clean:      true,
		Python:     "python3",
		Probe:      true,
	}
}

// candidateFiles are looked up in order by Discover.
var candidateFiles = []string{
	"pybundle.toml",
	"pybundle.yaml",
	"pybundle.yml",
	"pyproject.toml",
}

// Discover loads the first config file found in dir. It returns the defaults
// and an empty path when there is none.
func Discover(dir string) (Config, string, error) {
	for _, name := range candidateFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		cfg, err := Load(path)
		if err != nil {
			return Config{}, "", err
		}
		return cfg, path, nil
	}
	return Default(), "", nil
}

// Load reads a config file over the defaults. The format is chosen by name:
// pyproject.toml uses its [tool.pybundle] table, other .toml files are read
// whole, and .yaml/.yml files are decoded as YAML.
func Load(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	switch {
	case filepath.Base(path) == "pyproject.toml":
		var pyproject struct {
			Tool struct {
				Pybundle Config `toml:"pybundle"`
			} `toml:"tool"`
		}
		pyproject.Tool.Pybundle = cfg
		if _, err := toml.Decode(string(content), &pyproject); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg = pyproject.Tool.Pybundle
	case strings.HasSuffix(path, ".toml"):
		if _, err := toml.Decode(string(content), &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s (use .toml, .yaml or .yml)", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that required options are present.
func (c Config) Validate() error {
	var problems []string
	if c.SrcDir == "" {
		problems = append(problems, "src_dir must not be empty")
	}
	if c.SourceRoot == "" {
		problems = append(problems, "source_root must not be empty")
	}
	if c.DistDir == "" {
		problems = append(problems, "dist_dir must not be empty")
	}
	if c.Handler == "" || strings.ContainsRune(c.Handler, filepath.Separator) {
		problems = append(problems, "handler must be a plain file name")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
