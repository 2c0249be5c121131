package winmix

import (
	"fmt"
	"strings"
)

// sessionStringFormat is used when logging or printing a session
const sessionStringFormat = "<session: %s (pid %d)>"

// AudioSession is one running program with an active audio stream
type AudioSession struct {
	// PID is the ID of the process that owns this audio session, always > 0
	PID uint32

	// Path is the absolute path of the process executable, never empty
	Path string

	// EndpointID identifies the output device the session plays on
	EndpointID string

	// Volume controls this session only
	Volume *VolumeControl
}

// Name returns the executable's file name, e.g. "chrome.exe"
func (s AudioSession) Name() string {
	return executableName(s.Path)
}

func (s AudioSession) String() string {
	return fmt.Sprintf(sessionStringFormat, s.Name(), s.PID)
}

// Release releases the volume control of every given session
func Release(sessions []AudioSession) {
	for _, session := range sessions {
		if session.Volume != nil {
			session.Volume.Release()
		}
	}
}

// executableName handles both Windows and slash separated paths, regardless of the platform we run on
func executableName(path string) string {
	if idx := strings.LastIndexAny(path, `\/`); idx >= 0 {
		return path[idx+1:]
	}

	return path
}
