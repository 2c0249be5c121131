// Package util holds small OS helpers shared by winmix and its command line.
package util

import (
	"fmt"
	"math"
	"os"
)

// EnsureDirExists creates the directory at path, along with any missing parents
func EnsureDirExists(path string) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return fmt.Errorf("ensure directory exists (%s): %w", path, err)
	}

	return nil
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}

// GetCurrentWindowProcessNames returns the executable names (e.g. "chrome.exe") of the processes
// owning the foreground window and its child windows. Only implemented on Windows.
func GetCurrentWindowProcessNames() ([]string, error) {
	return getCurrentWindowProcessNames()
}

// NormalizeScalar rounds a volume level to two decimals, 0.15442 becomes 0.15
func NormalizeScalar(v float32) float32 {
	return float32(math.Round(float64(v)*100) / 100)
}
