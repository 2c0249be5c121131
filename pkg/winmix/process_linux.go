package winmix

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"
	"go.uber.org/zap"
)

// the kernel appends this to /proc/<pid>/exe when the executable was removed from disk
const deletedExecutableSuffix = " (deleted)"

type procProcessLocator struct {
	logger *zap.SugaredLogger
}

func newProcessLocator(logger *zap.SugaredLogger) (ProcessLocator, error) {
	l := &procProcessLocator{
		logger: logger.Named("process_locator"),
	}

	l.logger.Debug("Created procfs process locator instance")

	return l, nil
}

func (l *procProcessLocator) ExecutablePath(pid uint32) (string, error) {
	process, err := ps.FindProcess(int(pid))
	if err != nil {
		return "", fmt.Errorf("find process %d: %w", pid, err)
	}

	if process == nil {
		return "", fmt.Errorf("find process %d: %w", pid, ErrProcessExited)
	}

	path, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("read process %d executable: %w", pid, ErrProcessExited)
		}

		return "", fmt.Errorf("read process %d executable: %w", pid, err)
	}

	if strings.HasSuffix(path, deletedExecutableSuffix) {
		return "", fmt.Errorf("process %d executable %s was deleted", pid, strings.TrimSuffix(path, deletedExecutableSuffix))
	}

	return path, nil
}
