package winmix

// AudioProvider is the OS audio service, as seen by the enumeration pipeline.
// Every object handed out by a provider must be released by whoever received it.
type AudioProvider interface {
	// DefaultRenderEndpoint returns the current default output device
	DefaultRenderEndpoint() (Endpoint, error)

	// ActiveRenderEndpoints returns every active output device
	ActiveRenderEndpoints() ([]Endpoint, error)

	// Release frees whatever the provider holds for its own lifetime
	Release() error
}

// Endpoint is an audio output device
type Endpoint interface {
	ID() string
	SessionManager() (SessionManager, error)
	Release()
}

// SessionManager enumerates the audio sessions of a single endpoint. It must outlive
// every SessionControl it returned.
type SessionManager interface {
	Sessions() ([]SessionControl, error)
	Release()
}

// SessionControl is a single per-program audio session object
type SessionControl interface {
	ProcessID() (uint32, error)

	// SimpleAudioVolume binds an independent reference to the session's volume interface,
	// which stays valid after the session control, its manager and endpoint are released
	SimpleAudioVolume() (SimpleAudioVolume, error)

	Release()
}

// SimpleAudioVolume is the per-session volume interface of the OS mixer
type SimpleAudioVolume interface {
	// Target identifies the underlying control object. Two values with equal targets
	// control the same session.
	Target() string

	MasterVolume() (float32, error)
	SetMasterVolume(level float32) error
	Mute() (bool, error)
	SetMute(mute bool) error

	Release()
}

// ProcessLocator resolves a process ID to the absolute path of its executable.
// A pid without a running process should fail with an error wrapping ErrProcessExited.
type ProcessLocator interface {
	ExecutablePath(pid uint32) (string, error)
}
