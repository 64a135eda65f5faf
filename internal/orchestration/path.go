package orchestration

import (
	"fmt"
	"os"
	"strings"
)

// EnsurePathEntry appends an export line for binDir to the shell
// profile unless one is already there. Presence is detected by a
// substring check so repeated installs never duplicate the entry.
// It returns whether a line was added.
func EnsurePathEntry(profilePath, binDir string) (bool, error) {
	if profilePath == "" {
		return false, nil
	}

	existing, err := os.ReadFile(profilePath)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", profilePath, err)
	}
	if strings.Contains(string(existing), binDir) {
		return false, nil
	}

	f, err := os.OpenFile(profilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", profilePath, err)
	}
	defer f.Close()

	line := fmt.Sprintf("\nexport PATH=\"%s:$PATH\"\n", binDir)
	if _, err := f.WriteString(line); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", profilePath, err)
	}
	return true, nil
}
