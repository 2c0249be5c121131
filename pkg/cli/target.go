package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/thoas/go-funk"

	"github.com/nik9play/winmix/pkg/winmix"
)

// currentTarget selects the programs owning the foreground window
const currentTarget = "current"

// matchSessions picks the sessions a target refers to: a pid, "current", or an executable
// name, compared case-insensitively and with or without its .exe extension
func (a *app) matchSessions(target string, sessions []winmix.AudioSession) ([]winmix.AudioSession, error) {
	var keep func(session winmix.AudioSession) bool

	if strings.EqualFold(target, currentTarget) {
		names, err := a.foregroundNames()
		if err != nil {
			a.logger.Debugw("Failed to get foreground window processes", "error", err)
			return nil, errors.New(a.localize("ForegroundUnavailable", "Failed to find the foreground window: {{.Error}}",
				map[string]interface{}{"Error": err}))
		}

		names = funk.Map(names, strings.ToLower).([]string)
		a.logger.Debugw("Got foreground window processes", "names", names)

		keep = func(session winmix.AudioSession) bool {
			return funk.ContainsString(names, strings.ToLower(session.Name()))
		}
	} else if pid, err := strconv.ParseUint(target, 10, 32); err == nil {
		keep = func(session winmix.AudioSession) bool {
			return session.PID == uint32(pid)
		}
	} else {
		name := strings.ToLower(target)

		keep = func(session winmix.AudioSession) bool {
			sessionName := strings.ToLower(session.Name())
			return sessionName == name || strings.TrimSuffix(sessionName, ".exe") == name
		}
	}

	matched := funk.Filter(sessions, keep).([]winmix.AudioSession)
	if len(matched) == 0 {
		return nil, errors.New(a.localize("NoSessionsMatch", "No audio session matches {{.Target}}",
			map[string]interface{}{"Target": target}))
	}

	return matched, nil
}
