package platform

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
)

// CopyToClipboard copies the given text to the system clipboard.
// A missing clipboard utility is reported as a feature-unavailable error.
func CopyToClipboard(text string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "windows":
		cmd = exec.Command("clip")
	case "linux":
		// Try different clipboard utilities in order of preference
		if isCommandAvailable("xclip") {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else if isCommandAvailable("xsel") {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		} else if isCommandAvailable("wl-copy") {
			// Wayland clipboard
			cmd = exec.Command("wl-copy")
		} else {
			return apperrors.Unavailable("no clipboard utility found (install xclip, xsel, or wl-copy)")
		}
	default:
		return apperrors.Unavailable("clipboard not supported on " + runtime.GOOS)
	}

	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}

	return nil
}
