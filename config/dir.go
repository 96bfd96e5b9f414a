// Package config locates and manages the CLI's per-user config directory,
// where cmd/root.go looks for an optional config.yaml. No command reads
// analyze defaults (batch size, histogram bucket count) from it; analyze
// always runs with engine.DefaultOptions.
package config

import (
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sankooc/shark-go/printer"
)

var dir string

// Dir returns the config directory, creating it on first use.
func Dir() string {
	if dir != "" {
		return dir
	}

	home, err := homedir.Dir()
	if err != nil {
		printer.Stderr.Warningf("failed to find $HOME, defaulting to '.', error: %v\n", err)
		home = "."
	}
	dir = filepath.Join(home, ".shark-go")

	if stat, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.Mkdir(dir, 0700); err != nil {
			printer.Stderr.Warningf("failed to create config directory %s: %v\n", dir, err)
		}
	} else if err != nil {
		printer.Stderr.Warningf("failed to stat %s: %v\n", dir, err)
	} else if !stat.IsDir() {
		printer.Stderr.Warningf("%s is not a directory, config persistence disabled\n", dir)
	}

	return dir
}
