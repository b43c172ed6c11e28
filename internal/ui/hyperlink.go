package ui

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Hyperlink wraps text in an OSC 8 escape so terminals that support it make
// it clickable. Others print the text unchanged.
func Hyperlink(target, text string) string {
	return fmt.Sprintf("\x1b]8;;%s\x07%s\x1b]8;;\x07", target, text)
}

// FileLink links an exported document by its absolute path.
func FileLink(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return Hyperlink(u.String(), path)
}
