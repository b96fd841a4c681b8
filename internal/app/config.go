package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	GridPath    string // hcl files describing the match grid
	ModulesPath string // hcl manifests paired with Go handlers

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
}

// NewConfig validates a raw Config and returns it ready for use. A grid
// path is the one thing a run cannot do without; the CLI layer validates
// the enumerated fields before they reach here.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
