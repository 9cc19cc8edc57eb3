// Package config loads the pack.yaml release configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the project root.
const FileName = "pack.yaml"

// Config represents the pack.yaml configuration file.
type Config struct {
	// Product is the archive name prefix.
	Product string `yaml:"product"`

	// Version is embedded in every artifact name of one run.
	Version string `yaml:"version"`

	// ReleaseDir is the staging tree, relative to the project root.
	ReleaseDir string `yaml:"release_dir"`

	// Sources maps each target to its source directory.
	Sources Sources `yaml:"sources"`

	// Cpp holds the settings of the C++ configure driver.
	Cpp CppConfig `yaml:"cpp"`
}

// Sources holds the source directory of every target.
type Sources struct {
	C      string `yaml:"c"`
	Cpp    string `yaml:"cpp"`
	Csharp string `yaml:"csharp"`
	Java   string `yaml:"java"`
}

// CppConfig holds configure driver settings.
type CppConfig struct {
	GoogletestURL string `yaml:"googletest_url"`
	Component     string `yaml:"component"`
}

// Default returns the configuration used when no pack.yaml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads, schema-checks and parses a pack.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read config %s", path)
	}

	if err := ValidateDocument(data); err != nil {
		return nil, eris.Wrapf(err, "invalid config %s", path)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, eris.Wrapf(err, "failed to parse config %s", path)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, eris.Wrapf(err, "invalid config %s", path)
	}

	return &config, nil
}

// LoadDir loads pack.yaml from dir, falling back to the defaults when the
// file does not exist.
func LoadDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, eris.Wrapf(err, "failed to check %s", path)
	}
	return Load(path)
}

// Validate checks the semantic rules the schema cannot express.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.Product, `/\ `) {
		return eris.Errorf("product %q must not contain path separators or spaces", c.Product)
	}

	if strings.HasPrefix(c.Version, "v") || !semver.IsValid("v"+c.Version) {
		return eris.Errorf("version %q is not a semantic version (expected e.g. 0.1.0)", c.Version)
	}

	release, err := subdir("release_dir", c.ReleaseDir)
	if err != nil {
		return err
	}

	seen := make(map[string]string)
	for _, src := range []struct{ name, dir string }{
		{"c", c.Sources.C},
		{"cpp", c.Sources.Cpp},
		{"csharp", c.Sources.Csharp},
		{"java", c.Sources.Java},
	} {
		key := "sources." + src.name
		dir, err := subdir(key, src.dir)
		if err != nil {
			return err
		}
		if within(release, dir) || within(dir, release) {
			return eris.Errorf("%s %q overlaps the release directory %q", key, src.dir, c.ReleaseDir)
		}
		if other, ok := seen[dir]; ok {
			return eris.Errorf("%s and %s share the directory %q", other, key, src.dir)
		}
		seen[dir] = key
	}

	return nil
}

// subdir cleans a directory relative to the project root and rejects the
// root itself and anything outside it.
func subdir(key, dir string) (string, error) {
	clean := filepath.Clean(dir)
	if filepath.IsAbs(dir) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", eris.Errorf("%s %q must be a subdirectory of the project root", key, dir)
	}
	return clean, nil
}

// within reports whether path is dir or lies below it. Both are cleaned.
func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// applyDefaults sets default values for missing fields.
func (c *Config) applyDefaults() {
	if c.Product == "" {
		c.Product = "BinBuff"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.ReleaseDir == "" {
		c.ReleaseDir = "release"
	}
	if c.Sources.C == "" {
		c.Sources.C = "CBinBuff"
	}
	if c.Sources.Cpp == "" {
		c.Sources.Cpp = "CppBinBuff"
	}
	if c.Sources.Csharp == "" {
		c.Sources.Csharp = "CsBinBuff"
	}
	if c.Sources.Java == "" {
		c.Sources.Java = "JBinBuff"
	}
	if c.Cpp.GoogletestURL == "" {
		c.Cpp.GoogletestURL = "https://github.com/google/googletest.git"
	}
	if c.Cpp.Component == "" {
		c.Cpp.Component = "binbuff"
	}
}
