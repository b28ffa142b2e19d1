package relmap

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/validate"
)

// File represents a depsync.yaml configuration file: the relation map of
// the entity model, the default resolver/import configuration, and optional
// validation rules keyed by entity type.
type File struct {
	// Relations is the declared ownership/reference map.
	Relations Map `yaml:"relations"`

	// Defaults is the resolver/import configuration applied when the
	// caller does not supply one.
	Defaults depsync.Config `yaml:"defaults"`

	// Rules are optional CEL validation rules keyed by entity type
	// ("*" applies to all types).
	Rules map[string][]validate.Rule `yaml:"rules,omitempty"`
}

// Validate checks the relation map and the default configuration.
func (f *File) Validate() error {
	if len(f.Relations) == 0 {
		return fmt.Errorf("no relations declared")
	}
	if err := f.Relations.Validate(); err != nil {
		return err
	}
	return f.Defaults.Validate()
}

// Load reads and parses a depsync.yaml file from the given path. If the
// path is a directory, it looks for depsync.yaml or depsync.yml in that
// directory. Unset default fields fall back to depsync.DefaultConfig().
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	var configPath string
	if info.IsDir() {
		yamlPath := filepath.Join(path, "depsync.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "depsync.yml")
			if _, err := os.Stat(ymlPath); err == nil {
				configPath = ymlPath
			} else {
				return nil, fmt.Errorf("no depsync.yaml or depsync.yml found in %s", path)
			}
		}
	} else {
		configPath = path
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	file := &File{Defaults: depsync.DefaultConfig()}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return file, nil
}

// LoadFromDir searches for depsync.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
func LoadFromDir(dir string) (*File, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		file, err := Load(absDir)
		if err == nil {
			return file, nil
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("no depsync.yaml found in %s or parent directories", dir)
		}
		absDir = parent
	}
}
