package platform

import (
	"os/exec"
)

// isCommandAvailable checks if a command is available in PATH
func isCommandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// FindCommand returns the resolved path of the first available candidate.
// Candidates may be bare names (searched in PATH) or absolute paths.
func FindCommand(candidates ...string) (string, bool) {
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}
