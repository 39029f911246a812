package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ProjectConfigFile is the config file looked up in the project root.
const ProjectConfigFile = "hookdoc.yaml"

// Loader layers configuration: defaults, then a config file.
type Loader struct {
	log *logrus.Logger
}

// NewLoader creates a Loader. A nil logger uses the logrus standard logger.
func NewLoader(log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{log: log}
}

// Load builds the configuration for a project rooted at root. An explicit
// path must exist; otherwise root/hookdoc.yaml is used when present.
// The result is not validated, so callers can apply flag overrides first.
func (l *Loader) Load(root, path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, ProjectConfigFile)
	}

	file, err := LoadFromFile(path)
	switch {
	case err == nil:
		l.log.WithField("path", path).Debug("loaded config")
		cfg.Merge(file)
	case !explicit && errors.Is(err, fs.ErrNotExist):
		l.log.WithField("path", path).Debug("no project config")
	default:
		return nil, err
	}
	return cfg, nil
}
