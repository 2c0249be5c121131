package winmix

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/nik9play/winmix/pkg/win"
)

type winProcessLocator struct {
	logger *zap.SugaredLogger
}

func newProcessLocator(logger *zap.SugaredLogger) (ProcessLocator, error) {
	l := &winProcessLocator{
		logger: logger.Named("process_locator"),
	}

	l.logger.Debug("Created windows process locator instance")

	return l, nil
}

func (l *winProcessLocator) ExecutablePath(pid uint32) (string, error) {
	// the minimal access right that still allows querying the image name
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		// OpenProcess fails with ERROR_INVALID_PARAMETER when there's no process with this pid (anymore)
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return "", fmt.Errorf("open process %d: %w", pid, ErrProcessExited)
		}

		return "", fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(handle)

	nativePath, err := win.QueryFullProcessImageName(handle, win.PROCESS_NAME_NATIVE)
	if err != nil {
		return "", fmt.Errorf("query process %d image name: %w", pid, err)
	}

	devices, err := win.DosDevices()
	if err != nil {
		l.logger.Debugw("Failed to get dos devices", "error", err)
	}

	path, ok := win.TranslateDevicePath(nativePath, devices)
	if ok {
		return path, nil
	}

	// no drive letter matched (e.g. a volume mounted into a folder), let the OS do the translation
	l.logger.Debugw("Failed to translate device path, querying win32 path instead",
		"pid", pid,
		"nativePath", nativePath)

	path, err = win.QueryFullProcessImageName(handle, win.PROCESS_NAME_WIN32)
	if err != nil {
		return "", fmt.Errorf("query process %d win32 image name: %w", pid, err)
	}

	return path, nil
}
