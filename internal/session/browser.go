package session

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Navigator transfers control to another location. External URLs (provider
// authorization pages) and in-app paths (the login view) both go through it.
type Navigator interface {
	Navigate(target string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(target string) error {
	return f(target)
}

// BrowserNavigator opens absolute URLs in the system browser and hands in-app
// paths to InApp. InApp may be nil, in which case in-app navigation is a no-op.
type BrowserNavigator struct {
	InApp Navigator
	// Open defaults to OpenBrowser.
	Open func(url string) error
}

// Navigate implements Navigator.
func (b BrowserNavigator) Navigate(target string) error {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		open := b.Open
		if open == nil {
			open = OpenBrowser
		}
		return open(target)
	}
	if b.InApp == nil {
		return nil
	}
	return b.InApp.Navigate(target)
}

// OpenBrowser opens the specified URL in the default web browser.
// It supports Linux, macOS, and Windows.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	// Don't wait; the browser keeps running after we return.
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
