// Package platform wraps the OS-specific bits: clipboard access, locating
// external programs and per-user directories.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the per-user directory holding config and known hosts.
const AppDirName = ".hotspot-tickets"

// OS returns the current operating system
func OS() string {
	return runtime.GOOS
}

// IsWindows returns true if running on Windows
func IsWindows() bool {
	return runtime.GOOS == "windows"
}

// IsDarwin returns true if running on macOS
func IsDarwin() bool {
	return runtime.GOOS == "darwin"
}

// AppDir returns ~/.hotspot-tickets.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, AppDirName), nil
}

// OfficeCandidates lists the office-suite executables able to convert
// spreadsheets to PDF, in order of preference.
func OfficeCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			"soffice.exe",
			`C:\Program Files\LibreOffice\program\soffice.exe`,
			`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
		}
	case "darwin":
		return []string{"soffice", "/Applications/LibreOffice.app/Contents/MacOS/soffice"}
	default:
		return []string{"soffice", "libreoffice"}
	}
}
