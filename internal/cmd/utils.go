package cmd

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/binbuff/release-tools/internal/config"
	"github.com/binbuff/release-tools/internal/workspace"
	"github.com/binbuff/release-tools/pkg/xos"
)

// project is the loaded configuration and the root it applies to.
type project struct {
	root   string
	config *config.Config
	// configPath is empty when the defaults are used.
	configPath string
}

// loadProject honors --config, or looks for pack.yaml from the current
// directory upwards. Without a pack.yaml the current directory is the root.
func loadProject() (*project, error) {
	if configPath != "" {
		path, err := filepath.Abs(configPath)
		if err != nil {
			return nil, eris.Wrap(err, "failed to resolve --config")
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		return &project{root: filepath.Dir(path), config: cfg, configPath: path}, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, eris.Wrap(err, "failed to get current directory")
	}
	return loadProjectFrom(cwd)
}

func loadProjectFrom(dir string) (*project, error) {
	root, err := workspace.FindRoot(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadDir(root)
	if err != nil {
		return nil, err
	}

	p := &project{root: root, config: cfg}
	if path := filepath.Join(root, config.FileName); xos.IsFile(path) {
		p.configPath = path
	}
	return p, nil
}
