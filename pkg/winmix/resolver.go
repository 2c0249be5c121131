package winmix

import "errors"

type sessionIdentity struct {
	pid  uint32
	path string
}

// resolve attributes a session to a live process. Sessions that can't be attributed
// (system sounds, exited processes, inaccessible or deleted executables) are reported with ok == false,
// never as errors.
func (wm *WinMix) resolve(session SessionControl) (identity sessionIdentity, ok bool) {
	pid, err := session.ProcessID()
	if err != nil {
		wm.resolverLogger.Debugw("Excluding session, failed to query pid", "error", err)
		return sessionIdentity{}, false
	}

	// system sounds
	if pid == 0 {
		wm.resolverLogger.Debug("Excluding system sounds session")
		return sessionIdentity{}, false
	}

	path, err := wm.locator.ExecutablePath(pid)
	if err != nil {
		if errors.Is(err, ErrProcessExited) {
			wm.resolverLogger.Debugw("Excluding session, process already exited", "pid", pid)
		} else {
			wm.resolverLogger.Debugw("Excluding session, failed to get executable path", "pid", pid, "error", err)
		}

		return sessionIdentity{}, false
	}

	if path == "" {
		wm.resolverLogger.Debugw("Excluding session, empty executable path", "pid", pid)
		return sessionIdentity{}, false
	}

	return sessionIdentity{pid: pid, path: path}, true
}
