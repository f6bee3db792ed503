package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/subosito/gotenv"
)

// DefaultDotEnvPath is the settings file read at startup.
const DefaultDotEnvPath = ".env"

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// With override set, values in the file replace variables that are already
// defined. A missing file is not an error.
func LoadDotEnv(path string, override bool) error {
	if path == "" {
		path = DefaultDotEnvPath
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	var err error
	if override {
		err = gotenv.OverLoad(path)
	} else {
		err = gotenv.Load(path)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
