package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status reports whether an external program renderq launches can be run.
type Status struct {
	Name string
	// Command is the configured value; Path is what it resolved to.
	Command   string
	Path      string
	Optional  bool
	Available bool
	Detail    string
}

// ResolveCommand finds the executable for command. Values containing a path
// separator must name an executable file; bare names are looked up on PATH.
func ResolveCommand(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", errors.New("command not configured")
	}
	if !strings.ContainsRune(command, filepath.Separator) {
		path, err := exec.LookPath(command)
		if err != nil {
			return "", fmt.Errorf("%q not found on PATH", command)
		}
		return path, nil
	}
	info, err := os.Stat(command)
	if err != nil {
		return "", fmt.Errorf("%s: %w", command, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("%s is not executable", command)
	}
	return command, nil
}

// CheckCommand resolves command and reports the result under name.
func CheckCommand(name, command string, optional bool) Status {
	status := Status{Name: name, Command: strings.TrimSpace(command), Optional: optional}
	path, err := ResolveCommand(command)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Path = path
	status.Available = true
	return status
}
