package winmix

import "fmt"

// listSessions returns the session manager of the given endpoint along with its current sessions.
// The sessions borrow from the manager: release them first, then the manager.
func (wm *WinMix) listSessions(endpoint Endpoint) (SessionManager, []SessionControl, error) {
	manager, err := endpoint.SessionManager()
	if err != nil {
		wm.sessionLogger.Warnw("Failed to get session manager for endpoint",
			"endpointID", endpoint.ID(),
			"error", err)

		return nil, nil, fmt.Errorf("%w: get session manager for %s: %w", ErrSessionManagerUnavailable, endpoint.ID(), err)
	}

	sessions, err := manager.Sessions()
	if err != nil {
		wm.sessionLogger.Warnw("Failed to enumerate sessions for endpoint",
			"endpointID", endpoint.ID(),
			"error", err)

		manager.Release()
		return nil, nil, fmt.Errorf("%w: enumerate sessions for %s: %w", ErrSessionManagerUnavailable, endpoint.ID(), err)
	}

	wm.sessionLogger.Debugw("Got sessions from session manager",
		"endpointID", endpoint.ID(),
		"count", len(sessions))

	return manager, sessions, nil
}

func releaseSessionControls(sessions []SessionControl) {
	for _, session := range sessions {
		session.Release()
	}
}
