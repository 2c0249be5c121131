package winmix

import "errors"

var (
	// ErrDeviceUnavailable means there is no active output endpoint, or the audio service can't be reached
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrSessionManagerUnavailable means an endpoint exists but can't supply its session manager
	ErrSessionManagerUnavailable = errors.New("session manager unavailable")

	// ErrControlUnavailable is returned by a VolumeControl whose session has ended or was released
	ErrControlUnavailable = errors.New("volume control unavailable")

	// ErrInvalidArgument is returned for volume levels outside [0.0, 1.0]
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProcessExited is wrapped by a ProcessLocator when the pid no longer belongs to a running process
	ErrProcessExited = errors.New("no such process")
)
