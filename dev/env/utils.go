package devenv

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"edgar13f/lib/configutil"
)

const (
	moduleName = "edgar13f"
	// StatePrefix marks a path as relative to the dev state directory.
	StatePrefix = "<dev_state>"
)

var moduleLine = regexp.MustCompile(`(?m)^module\s+(\S+)\s*$`)

func declaresModule(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	matches := moduleLine.FindSubmatch(mod)
	return len(matches) == 2 && string(matches[1]) == moduleName
}

// GetWorkspaceRoot finds the directory holding this module's go.mod by
// walking up from the working directory, the result is computed once.
var GetWorkspaceRoot = sync.OnceValues(func() (string, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for {
		if declaresModule(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s go.mod above the working directory: %w", moduleName, os.ErrNotExist)
		}
		dir = parent
	}
})

func stateDir() (string, error) {
	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "dev", ".state"), nil
}

// GetStateFilePath is the absolute path of a file in the dev state directory.
func GetStateFilePath(path string) (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, path), nil
}

// GetStateConfig reads a json5 config (and its .local override) from the dev
// state directory, tests skip themselves when this fails.
func GetStateConfig[T any](path string) (T, error) {
	configPath, err := GetStateFilePath(path)
	if err != nil {
		var out T
		return out, err
	}
	return configutil.ReadConfig[T](configPath)
}

// ResolvePath expands a leading <dev_state> and makes sure the state
// directory exists, any other path is returned unchanged.
func ResolvePath(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, StatePrefix)
	if !ok {
		return path, nil
	}

	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, strings.TrimLeft(rest, `/\`)), nil
}
