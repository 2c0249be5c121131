package util

import "errors"

var errNoForegroundWindow = errors.New("foreground window lookup is only supported on windows")

func getCurrentWindowProcessNames() ([]string, error) {
	return nil, errNoForegroundWindow
}
